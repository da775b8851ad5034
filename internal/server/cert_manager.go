package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/observability"
)

// CertificateManager holds the serving certificate and client CA pool and
// swaps them when the files on disk change
type CertificateManager struct {
	mu       sync.RWMutex
	cfg      config.TLSConfig
	cert     *tls.Certificate
	caPool   *x509.CertPool
	notAfter time.Time

	watcher *CertWatcher
	metrics *observability.Metrics
	logger  *errors.Logger

	reloadCount   int64
	reloadFailed  int64
	lastReload    time.Time
	lastReloadErr string
}

// NewCertificateManager loads the configured certificate, key and CA
func NewCertificateManager(cfg config.TLSConfig, metrics *observability.Metrics, logger *errors.Logger) (*CertificateManager, error) {
	cm := &CertificateManager{cfg: cfg, metrics: metrics, logger: logger}
	if err := cm.load(); err != nil {
		return nil, err
	}
	return cm, nil
}

// Start watches the certificate files when reload is enabled. Certificates
// supplied as PEM content have nothing to watch.
func (cm *CertificateManager) Start() error {
	if !cm.cfg.Reload.Enabled || cm.cfg.CertFile == "" {
		return nil
	}

	watcher := NewCertWatcher([]string{cm.cfg.CertFile, cm.cfg.KeyFile, cm.cfg.CAFile},
		cm.cfg.Reload.DebounceDelay, func() { _ = cm.Reload() }, cm.logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cm.watcher = watcher
	return nil
}

// Stop stops watching for certificate changes
func (cm *CertificateManager) Stop() error {
	if cm.watcher == nil {
		return nil
	}
	return cm.watcher.Stop()
}

// Reload re-reads the certificates. On failure the previous ones stay in use.
func (cm *CertificateManager) Reload() error {
	err := cm.load()

	cm.mu.Lock()
	cm.reloadCount++
	cm.lastReload = time.Now()
	cm.lastReloadErr = ""
	if err != nil {
		cm.reloadFailed++
		cm.lastReloadErr = err.Error()
	}
	cm.mu.Unlock()

	cm.metrics.RecordCertReload(context.Background(), err == nil)
	if err != nil {
		cm.logger.LogError(err, "Failed to reload TLS certificates")
		return err
	}
	cm.logger.Info("TLS certificates reloaded", "not_after", cm.notAfterTime())
	return nil
}

func (cm *CertificateManager) load() error {
	cert, err := loadKeyPair(cm.cfg)
	if err != nil {
		return err
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var pool *x509.CertPool
	if cm.cfg.Mode == "mutual" {
		pool, err = loadCAPool(cm.cfg)
		if err != nil {
			return err
		}
	}

	cm.mu.Lock()
	cm.cert = &cert
	cm.caPool = pool
	cm.notAfter = leaf.NotAfter
	cm.mu.Unlock()
	return nil
}

// GetCertificate serves the current certificate to tls.Config
func (cm *CertificateManager) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if cm.cert == nil {
		return nil, fmt.Errorf("no server certificate loaded")
	}
	return cm.cert, nil
}

// CAPool returns the current client CA pool, nil outside mutual mode
func (cm *CertificateManager) CAPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caPool
}

// CheckExpiry returns the time left before the serving certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	notAfter := cm.notAfterTime()
	if notAfter.IsZero() {
		return 0, fmt.Errorf("no server certificate loaded")
	}
	return time.Until(notAfter), nil
}

func (cm *CertificateManager) notAfterTime() time.Time {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.notAfter
}

// Stats returns reload counters for /health
func (cm *CertificateManager) Stats() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	stats := map[string]any{
		"reload_count":         cm.reloadCount,
		"reload_failure_count": cm.reloadFailed,
		"last_reload_error":    cm.lastReloadErr,
		"watching":             cm.watcher != nil && cm.watcher.IsRunning(),
	}
	if !cm.lastReload.IsZero() {
		stats["last_reload_time"] = cm.lastReload
	}
	return stats
}

// loadKeyPair reads the server certificate from PEM content or files
func loadKeyPair(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

func loadCAPool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var pem []byte
	switch {
	case cfg.CAContent != "":
		pem = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pem = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}
