package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(tlsEnabled bool) {
	scheme := "http"
	if tlsEnabled {
		scheme = "https"
	}
	fmt.Printf("Starting jobpilot %s on %s://%s:%s (TLS mode: %s)\n", s.Version, scheme, s.Host, s.Port, tlsMode(s.TLSConfig.Mode))

	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func tlsMode(mode string) string {
	if mode == "" {
		return "disabled"
	}
	return mode
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                 - Health check")
	fmt.Println("  GET    /stats                                  - Server statistics")
	fmt.Println("  POST   /resumes                                - Upload a resume (multipart 'file')")
	fmt.Println("  GET    /resumes                                - List resumes")
	fmt.Println("  DELETE /resumes/{id}                           - Delete a resume")
	fmt.Println("  POST   /resumes/parse                          - Parse resume text")
	fmt.Println("  POST   /jobs/search                            - Search jobs by company/role or skills")
	fmt.Println("  POST   /jobs/suggest                           - Suggest jobs from a resume")
	fmt.Println("  POST   /tests/generate                         - Generate a test without storing it")
	fmt.Println("  POST   /applications                           - Apply to a job")
	fmt.Println("  GET    /applications                           - List applications with tests")
	fmt.Println("  PATCH  /applications/{id}/status               - Update application status")
	fmt.Println("  POST   /applications/{id}/tests/{type}         - Take or review a test")
	fmt.Println("  POST   /applications/{id}/tests/{type}/submit  - Submit test answers")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' and 'X-User-ID: <user>' headers in requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimiter == nil {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	if s.RateLimit.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if s.RateLimit.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
