// ABOUTME: Tests for version and product identification
// ABOUTME: Checks the formats that hello messages, TXT records and the CLI depend on
package version

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func TestVersionIsSemver(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	if !semver.MatchString(Version) {
		t.Errorf("Version = %q, want MAJOR.MINOR.PATCH", Version)
	}
}

func TestProtocolVersion(t *testing.T) {
	if ProtocolVersion < 1 {
		t.Errorf("ProtocolVersion = %d, want >= 1", ProtocolVersion)
	}

	txt := "version=" + strconv.Itoa(ProtocolVersion)
	if len(txt) > 255 {
		t.Errorf("TXT entry %q exceeds 255 bytes", txt)
	}
}

func TestProductNaming(t *testing.T) {
	if !strings.HasPrefix(Product, Manufacturer+" ") {
		t.Errorf("Product = %q, want it prefixed with Manufacturer %q", Product, Manufacturer)
	}
	if strings.TrimSpace(Product) != Product {
		t.Errorf("Product = %q has surrounding whitespace", Product)
	}
}
