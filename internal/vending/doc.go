// Package vending implements the lane registry of a vending machine: products registered
// under lane codes, per-lane stock and sales counters, and machine-wide queries.
package vending
