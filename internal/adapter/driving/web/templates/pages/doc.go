// Package pages holds the page-level components of the GUI.
package pages
