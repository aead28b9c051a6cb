package security

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// metadataBlock is the cloud metadata link-local range. It is denied with
// its own reason even though link-local classification already covers it,
// so audit logs make credential-theft attempts visible.
var metadataBlock = netip.MustParsePrefix("169.254.0.0/16")

// Verdict is the outcome of validating a URL. Reason is populated for both
// allow and deny so every decision can be audited.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow(format string, args ...any) Verdict {
	return Verdict{Allowed: true, Reason: fmt.Sprintf(format, args...)}
}

func deny(format string, args ...any) Verdict {
	return Verdict{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Validator decides whether a media URL is a safe download destination.
// It is pure: no network access, no DNS resolution, no state mutation.
type Validator struct {
	allowList *AllowList
}

// NewValidator creates a validator backed by the given allow-list registry.
func NewValidator(allowList *AllowList) *Validator {
	return &Validator{allowList: allowList}
}

// Validate renders an allow/deny verdict for rawURL. Anything that cannot
// be parsed or classified is denied; there is no implicit allow path.
func (v *Validator) Validate(rawURL string) Verdict {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return deny("invalid URL: %v", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return deny("scheme not allowed: %q", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return deny("missing hostname")
	}

	// Literal IPs never match the hostname allow-list; classify them here
	// so private and metadata addresses get an explicit denial reason.
	if addr, err := netip.ParseAddr(hostname); err == nil {
		if verdict := CheckAddr(addr); !verdict.Allowed {
			return verdict
		}
		return deny("hostname not allow-listed: %s", hostname)
	}

	host := strings.ToLower(hostname)

	if v.allowList.ContainsDomain(host) {
		return allow("hostname allow-listed: %s", host)
	}
	if suffix, ok := v.allowList.MatchSuffix(host); ok {
		return allow("hostname suffix allow-listed: %s", suffix)
	}

	return deny("hostname not allow-listed: %s", hostname)
}

// CheckAddr classifies a literal IP address. It is also used by the fetcher
// to re-validate resolved addresses at dial time, which closes the window
// where a DNS name that passed hostname validation rebinds to a private
// address before the connection opens.
func CheckAddr(addr netip.Addr) Verdict {
	ip := addr.Unmap()

	if metadataBlock.Contains(ip) {
		return deny("metadata IP blocked: %s", ip)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || !ip.IsGlobalUnicast() {
		return deny("IP not allowed: %s", ip)
	}

	return allow("public IP: %s", ip)
}
