package testutil

import "github.com/zjrosen/reclaim/internal/recycling"

// unitData holds a unit to be minted during builder setup.
type unitData struct {
	id    string
	owner recycling.Identity
}

// classData holds all data for a class to be registered.
type classData struct {
	id     string
	rate   uint64
	active bool
	units  []unitData
}

// defaultClass returns a classData with sensible defaults.
func defaultClass(id string, rate uint64) classData {
	return classData{id: id, rate: rate, active: true}
}

// ClassOption configures a class during builder setup.
type ClassOption func(*classData)

// Inactive deactivates the class after registration.
func Inactive() ClassOption {
	return func(c *classData) { c.active = false }
}
