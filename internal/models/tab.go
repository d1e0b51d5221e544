package models

// Tab is an open editor view onto one element
type Tab struct {
	ElementID string `json:"elementId"`
	Route     string `json:"route"`
	Label     string `json:"label"`
}
