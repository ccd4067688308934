package scrape

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// storedCookie はJSONファイルに永続化するクッキーの表現。
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// persistentJar はcookiejar.Jarをラップし、受け取ったクッキーを
// JSONファイルとして保存・復元できるようにしたもの。
// 標準のJarはクッキーの列挙手段を持たないため、SetCookies経由で
// 届いたものを別途記録しておく方式を取る。
type persistentJar struct {
	inner *cookiejar.Jar
	path  string

	mu     sync.Mutex
	stored map[string][]storedCookie // キーは scheme://host
}

var _ http.CookieJar = (*persistentJar)(nil)

// newPersistentJar は永続化ファイルからクッキーを復元したJarを生成する。
// ファイルが存在しない場合は空のJarを返す。
func newPersistentJar(path string) (*persistentJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("クッキージャーの生成に失敗しました: %w", err)
	}

	j := &persistentJar{
		inner:  inner,
		path:   path,
		stored: make(map[string][]storedCookie),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("クッキーファイルの読み込みに失敗しました: %w", err)
	}

	var stored map[string][]storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("クッキーファイルのパースに失敗しました: %w", err)
	}

	now := time.Now()
	for key, cookies := range stored {
		u, err := url.Parse(key)
		if err != nil {
			continue
		}
		var live []*http.Cookie
		for _, c := range cookies {
			if !c.Expires.IsZero() && c.Expires.Before(now) {
				continue
			}
			live = append(live, &http.Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Path:     c.Path,
				Domain:   c.Domain,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HttpOnly: c.HttpOnly,
			})
		}
		if len(live) > 0 {
			j.inner.SetCookies(u, live)
			j.rememberLocked(key, live)
		}
	}

	return j, nil
}

// Cookies はhttp.CookieJarを実装する。
func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// SetCookies はhttp.CookieJarを実装する。受け取ったクッキーは
// 内部のJarに渡すと同時に、永続化用の記録にも積む。
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.rememberLocked(u.Scheme+"://"+u.Host, cookies)
}

func (j *persistentJar) rememberLocked(key string, cookies []*http.Cookie) {
	existing := j.stored[key]
	for _, c := range cookies {
		sc := storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		replaced := false
		for i := range existing {
			if existing[i].Name == sc.Name && existing[i].Path == sc.Path && existing[i].Domain == sc.Domain {
				existing[i] = sc
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, sc)
		}
	}
	j.stored[key] = existing
}

// Save は記録済みのクッキーをJSONファイルへ書き出す。
// 一時ファイルへ書いてからリネームすることで書き込み途中のファイルが残らないようにする。
func (j *persistentJar) Save() error {
	j.mu.Lock()
	data, err := json.MarshalIndent(j.stored, "", "  ")
	j.mu.Unlock()
	if err != nil {
		return fmt.Errorf("クッキーのシリアライズに失敗しました: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("クッキーディレクトリの作成に失敗しました: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cookies-*.json")
	if err != nil {
		return fmt.Errorf("一時ファイルの作成に失敗しました: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("クッキーファイルの書き込みに失敗しました: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("クッキーファイルのクローズに失敗しました: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("クッキーファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}
