package service

import (
	"fmt"
	"regexp"
	"strings"
)

// Croatian plates: city code, 3-4 digits, 1-2 letters.
var platePattern = regexp.MustCompile(`^[A-ZČĆŽŠĐ]{1,2}\d{3,4}[A-ZČĆŽŠĐ]{1,2}$`)

// NormalizePlate upper-cases plate, drops separators and validates it.
func NormalizePlate(plate string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(plate))
	p = strings.NewReplacer(" ", "", "-", "").Replace(p)
	if !platePattern.MatchString(p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlate, plate)
	}
	return p, nil
}
