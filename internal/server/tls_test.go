package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
)

// writeSelfSigned writes a self-signed certificate and key valid for ttl
// and returns their paths. The certificate doubles as its own CA.
func writeSelfSigned(t *testing.T, dir string, ttl time.Duration) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(ttl),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func quietLogger() *errors.Logger {
	return errors.NewLoggerTo(io.Discard, slog.LevelError)
}

func TestCertificateManagerLoad(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, 48*time.Hour)

	cm, err := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, quietLogger())
	require.NoError(t, err)

	cert, err := cm.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Certificate)
	assert.Nil(t, cm.CAPool())

	left, err := cm.CheckExpiry()
	require.NoError(t, err)
	assert.Greater(t, left, 47*time.Hour)

	// reload disabled, nothing to watch
	require.NoError(t, cm.Start())
	assert.Equal(t, false, cm.Stats()["watching"])
	require.NoError(t, cm.Stop())
}

func TestCertificateManagerErrors(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, time.Hour)

	tests := []struct {
		name    string
		cfg     config.TLSConfig
		wantErr string
	}{
		{
			name:    "missing key pair",
			cfg:     config.TLSConfig{Mode: "server"},
			wantErr: "TLS certificate and key are required",
		},
		{
			name:    "unreadable files",
			cfg:     config.TLSConfig{Mode: "server", CertFile: filepath.Join(dir, "nope.crt"), KeyFile: keyFile},
			wantErr: "failed to load server cert/key from files",
		},
		{
			name:    "mutual without CA",
			cfg:     config.TLSConfig{Mode: "mutual", CertFile: certFile, KeyFile: keyFile},
			wantErr: "CA certificate is required",
		},
		{
			name:    "bad content",
			cfg:     config.TLSConfig{Mode: "server", CertContent: "not pem", KeyContent: "not pem"},
			wantErr: "failed to load server cert/key from content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCertificateManager(tt.cfg, nil, quietLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCertificateManagerReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, time.Hour)

	cm, err := NewCertificateManager(config.TLSConfig{Mode: "server", CertFile: certFile, KeyFile: keyFile}, nil, quietLogger())
	require.NoError(t, err)
	before, err := cm.GetCertificate(nil)
	require.NoError(t, err)

	writeSelfSigned(t, dir, 72*time.Hour)
	require.NoError(t, cm.Reload())
	after, err := cm.GetCertificate(nil)
	require.NoError(t, err)
	assert.NotEqual(t, before.Certificate[0], after.Certificate[0])
	left, err := cm.CheckExpiry()
	require.NoError(t, err)
	assert.Greater(t, left, 71*time.Hour)

	// a broken file keeps the previous certificate
	require.NoError(t, os.WriteFile(certFile, []byte("garbage"), 0o600))
	require.Error(t, cm.Reload())
	current, err := cm.GetCertificate(nil)
	require.NoError(t, err)
	assert.Equal(t, after.Certificate[0], current.Certificate[0])

	stats := cm.Stats()
	assert.Equal(t, int64(2), stats["reload_count"])
	assert.Equal(t, int64(1), stats["reload_failure_count"])
	assert.NotEmpty(t, stats["last_reload_error"])
	assert.Contains(t, stats, "last_reload_time")
}

func TestBuildTLSConfigMutual(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, time.Hour)

	tlsCfg := config.TLSConfig{
		Mode:             "mutual",
		CertFile:         certFile,
		KeyFile:          keyFile,
		CAFile:           certFile,
		MinVersion:       "1.3",
		ClientAuthPolicy: "verify",
	}
	cm, err := NewCertificateManager(tlsCfg, nil, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, cm.CAPool())

	s := &Server{TLSConfig: tlsCfg, Logger: quietLogger()}
	built := s.buildTLSConfig(cm)
	assert.Equal(t, uint16(tls.VersionTLS13), built.MinVersion)
	assert.Equal(t, tls.VerifyClientCertIfGiven, built.ClientAuth)
	require.NotNil(t, built.GetConfigForClient)

	perClient, err := built.GetConfigForClient(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Same(t, cm.CAPool(), perClient.ClientCAs)
	assert.Nil(t, perClient.GetConfigForClient)

	s.TLSConfig.Mode = "server"
	plain := s.buildTLSConfig(cm)
	assert.Equal(t, tls.NoClientCert, plain.ClientAuth)
	assert.Nil(t, plain.GetConfigForClient)
}

func TestTLSSettings(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS12), minTLSVersion(""))
	assert.Equal(t, uint16(tls.VersionTLS12), minTLSVersion("1.2"))
	assert.Equal(t, uint16(tls.VersionTLS13), minTLSVersion("1.3"))

	policies := map[string]tls.ClientAuthType{
		"":        tls.RequireAndVerifyClientCert,
		"require": tls.RequireAndVerifyClientCert,
		"request": tls.RequestClientCert,
		"verify":  tls.VerifyClientCertIfGiven,
	}
	for policy, want := range policies {
		assert.Equal(t, want, clientAuthPolicy(policy), "policy %q", policy)
	}
}

func TestConfigureTLSInvalidMode(t *testing.T) {
	s := &Server{TLSConfig: config.TLSConfig{Mode: "both"}, Logger: quietLogger()}
	err := s.configureTLS(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TLS mode")
}

func TestCertWatcherTriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeSelfSigned(t, dir, time.Hour)

	var calls atomic.Int32
	w := NewCertWatcher([]string{certFile, keyFile}, 20*time.Millisecond, func() { calls.Add(1) }, quietLogger())
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	assert.True(t, w.IsRunning())

	// make sure the new files get a different modification time
	time.Sleep(10 * time.Millisecond)
	writeSelfSigned(t, dir, 2*time.Hour)

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}
