//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race instrumentation makes bcrypt slow enough to trip test timeouts
const passwordHashCost = bcrypt.DefaultCost
