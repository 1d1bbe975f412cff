package security

import (
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	trustedProxies []*net.IPNet
	proxyOnce      sync.Once
)

func initTrustedProxies() {
	proxyOnce.Do(func() {
		defaultCIDRs := []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
		if env := os.Getenv("PIXGATE_TRUSTED_PROXIES"); env != "" {
			defaultCIDRs = strings.Split(env, ",")
		}
		for _, cidr := range defaultCIDRs {
			cidr = strings.TrimSpace(cidr)
			_, network, err := net.ParseCIDR(cidr)
			if err == nil {
				trustedProxies = append(trustedProxies, network)
			}
		}
	})
}

func isTrustedProxy(ip string) bool {
	initTrustedProxies()
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range trustedProxies {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// GetClientIP extracts client IP, only trusting proxy headers from trusted sources.
func GetClientIP(r *http.Request) string {
	directIP, _, _ := net.SplitHostPort(r.RemoteAddr)
	if directIP == "" {
		directIP = r.RemoteAddr
	}

	if isTrustedProxy(directIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			clientIP := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(clientIP) != nil {
				return clientIP
			}
		}
		if xri := r.Header.Get("X-Real-Ip"); xri != "" {
			xri = strings.TrimSpace(xri)
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

// BruteForceProtector blocks an IP for blockDuration once it has produced
// maxAttempts wrong CAPTCHA answers in a row.
type BruteForceProtector struct {
	mu            sync.Mutex
	attempts      map[string]*ipAttempts
	maxAttempts   int
	blockDuration time.Duration
	now           func() time.Time
	done          chan struct{}
	wg            sync.WaitGroup
	once          sync.Once
}

type ipAttempts struct {
	count     int
	blockedAt *time.Time
}

func NewBruteForceProtector(maxAttempts int, blockDuration time.Duration) *BruteForceProtector {
	bf := &BruteForceProtector{
		attempts:      make(map[string]*ipAttempts),
		maxAttempts:   maxAttempts,
		blockDuration: blockDuration,
		now:           time.Now,
		done:          make(chan struct{}),
	}
	bf.wg.Add(1)
	go bf.cleanup(5 * time.Minute)
	return bf
}

func (bf *BruteForceProtector) Check(ip string) bool {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	attempts, exists := bf.attempts[ip]
	if !exists {
		return true
	}

	if attempts.blockedAt != nil {
		if bf.now().Sub(*attempts.blockedAt) < bf.blockDuration {
			return false
		}
		attempts.count = 0
		attempts.blockedAt = nil
	}

	return attempts.count < bf.maxAttempts
}

func (bf *BruteForceProtector) RecordFailure(ip string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	attempts, exists := bf.attempts[ip]
	if !exists {
		attempts = &ipAttempts{count: 0}
		bf.attempts[ip] = attempts
	}

	attempts.count++
	if attempts.count >= bf.maxAttempts && attempts.blockedAt == nil {
		now := bf.now()
		attempts.blockedAt = &now
	}
}

func (bf *BruteForceProtector) RecordSuccess(ip string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	delete(bf.attempts, ip)
}

func (bf *BruteForceProtector) Close() {
	bf.once.Do(func() { close(bf.done) })
	bf.wg.Wait()
}

func (bf *BruteForceProtector) cleanup(interval time.Duration) {
	defer bf.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-bf.done:
			return
		case <-ticker.C:
			bf.prune()
		}
	}
}

func (bf *BruteForceProtector) prune() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	for ip, attempts := range bf.attempts {
		if attempts.blockedAt != nil && bf.now().Sub(*attempts.blockedAt) > bf.blockDuration {
			delete(bf.attempts, ip)
		}
	}
}
