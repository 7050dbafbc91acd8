// Package templates holds the page shell shared by every GUI page.
package templates
