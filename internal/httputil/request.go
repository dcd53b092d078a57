package httputil

import (
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from the request.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For first (behind proxy/load balancer); it can contain
	// multiple IPs, the first one is the client.
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
