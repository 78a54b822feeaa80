package service

import (
	"fmt"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
)

// FourfoldFactor is the titer ratio regarded as a clinically significant rise.
const FourfoldFactor = 4

// IsFourfoldOrGreater reports whether a is at least four times b. Both titers
// must be present; callers decide what absence means before calling.
func IsFourfoldOrGreater(a, b domain.Titer) bool {
	return int(a) >= FourfoldFactor*int(b)
}

// IsFourfoldOrGreaterRaw normalizes two boundary titer values (numbers or
// "1:N" strings) and compares them.
func IsFourfoldOrGreaterRaw(a, b any) (bool, error) {
	ta, err := domain.ParseTiter(a)
	if err != nil {
		return false, fmt.Errorf("first titer: %w", err)
	}
	tb, err := domain.ParseTiter(b)
	if err != nil {
		return false, fmt.Errorf("second titer: %w", err)
	}
	return IsFourfoldOrGreater(ta, tb), nil
}

// infantFourfoldRise compares the infant titer against the maternal titer.
// A missing titer reads as no evidence of a fourfold rise.
func infantFourfoldRise(infant, maternal *domain.Titer) bool {
	if infant == nil || maternal == nil {
		return false
	}
	return IsFourfoldOrGreater(*infant, *maternal)
}
