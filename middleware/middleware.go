package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// 全局变量，用于记录每个 IP 在当前时间窗口内的请求次数以及最后一次更新时间
var (
	ipRequestCount = make(map[string]int)
	ipLastReset    = make(map[string]time.Time)
	mu             sync.Mutex
)

// 配置参数
const (
	requestLimit    = 5000            // 每个 IP 每个窗口允许的最大请求次数
	resetInterval   = time.Second     // 请求计数的时间窗口
	cleanupInterval = 2 * time.Minute // 清理间隔
)

// RateLimit 限制每个 IP 在 resetInterval 内的请求次数
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := strings.Split(r.RemoteAddr, ":")[0]

		mu.Lock()
		now := time.Now()
		if last, ok := ipLastReset[clientIP]; !ok || now.Sub(last) > resetInterval {
			ipRequestCount[clientIP] = 0
			ipLastReset[clientIP] = now
		}

		ipRequestCount[clientIP]++
		if ipRequestCount[clientIP] > requestLimit {
			mu.Unlock()
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// StartIPCleanup 后台定时清理不活跃的 IP 记录
func StartIPCleanup(stopChan <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopChan:
				return
			case <-ticker.C:
				mu.Lock()
				now := time.Now()
				for ip, last := range ipLastReset {
					if now.Sub(last) > 2*resetInterval {
						delete(ipRequestCount, ip)
						delete(ipLastReset, ip)
					}
				}
				mu.Unlock()
			}
		}
	}()
}
