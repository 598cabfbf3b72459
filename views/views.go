// Package views provides the default HTML views as templ components. Every
// page renders inside Layout, which owns the head metadata and site chrome.
package views

//go:generate templ generate
