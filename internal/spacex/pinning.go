package spacex

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrCertificatePinning is returned when no presented certificate matches a pin
var ErrCertificatePinning = errors.New("certificate does not match any pinned hash")

// CertificateHash returns the lowercase hex SHA-256 of a DER certificate
func CertificateHash(der []byte) string {
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// PinnedTLSConfig returns a copy of base that accepts a connection only when
// one checked certificate hashes to a pin. With validateChain every
// certificate of the verified chain is checked, otherwise only the leaf.
// Standard chain and hostname verification still run first
func PinnedTLSConfig(base *tls.Config, pins []string, validateChain bool) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	pinned := make(map[string]struct{}, len(pins))
	for _, p := range pins {
		pinned[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, verifiedChains [][]*x509.Certificate) error {
		candidates := rawCerts
		if len(verifiedChains) > 0 && len(verifiedChains[0]) > 0 {
			candidates = make([][]byte, 0, len(verifiedChains[0]))
			for _, c := range verifiedChains[0] {
				candidates = append(candidates, c.Raw)
			}
		}
		if len(candidates) == 0 {
			return fmt.Errorf("%w: no certificate presented", ErrCertificatePinning)
		}
		if !validateChain {
			candidates = candidates[:1]
		}

		for _, der := range candidates {
			if _, ok := pinned[CertificateHash(der)]; ok {
				return nil
			}
		}
		return fmt.Errorf("%w: checked %d certificate(s) against %d pin(s)", ErrCertificatePinning, len(candidates), len(pinned))
	}
	return cfg
}
