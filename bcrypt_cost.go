//go:build !race

package auth

const passwordHashCost = 14
