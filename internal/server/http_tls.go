package server

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"jobpilot/internal/observability"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server, metrics *observability.Metrics) error {
	switch s.TLSConfig.Mode {
	case "", "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	cm, err := NewCertificateManager(s.TLSConfig, metrics, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	if err := cm.Start(); err != nil {
		return err
	}
	s.CertificateManager = cm

	httpServer.TLSConfig = s.buildTLSConfig(cm)
	return nil
}

// buildTLSConfig serves certificates from cm. In mutual mode the client CA
// pool is read per handshake so a reloaded CA takes effect immediately.
func (s *Server) buildTLSConfig(cm *CertificateManager) *tls.Config {
	tlsConfig := &tls.Config{
		MinVersion:     minTLSVersion(s.TLSConfig.MinVersion),
		GetCertificate: cm.GetCertificate,
		ClientAuth:     tls.NoClientCert,
	}

	if s.TLSConfig.Mode == "mutual" {
		tlsConfig.ClientAuth = clientAuthPolicy(s.TLSConfig.ClientAuthPolicy)
		tlsConfig.GetConfigForClient = func(*tls.ClientHelloInfo) (*tls.Config, error) {
			cfg := tlsConfig.Clone()
			cfg.GetConfigForClient = nil
			cfg.ClientCAs = cm.CAPool()
			return cfg, nil
		}
	}
	return tlsConfig
}

func minTLSVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}
