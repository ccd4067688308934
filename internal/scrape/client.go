package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/otolog/internal/config"
	"github.com/hitoshi/otolog/internal/model"
)

// リモートサービスのエンドポイント。
const (
	baseURL         = "https://maimaidx-eng.com/maimai-mobile/"
	recordURL       = baseURL + "record/"
	playerDataURL   = baseURL + "playerData/"
	scoreListURL    = baseURL + "record/musicGenre/search/?genre=99&diff=%d"
	loginsidPath    = "/common_auth/login/sid/"
	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// SafeClientFactory はSSRF防止機能付きHTTPクライアントの生成インターフェース。
type SafeClientFactory interface {
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
	ValidateURL(rawURL string) error
}

// Client はリモートサービスへの認証付きアクセスを行う。
// クッキーはファイルに永続化され、プロセス再起動後もセッションを引き継ぐ。
// RemoteSourceインターフェースを実装する。
type Client struct {
	httpClient    *http.Client
	jar           *persistentJar
	logger        *slog.Logger
	segaID        string
	segaPassword  string
	maxBodySize   int64
	retryAttempts int

	// メンテナンス時間帯（ローカル時、[start, end)）。この間はリモートへの
	// 一切のリクエストを発行しない。
	maintenanceStart int
	maintenanceEnd   int

	// now はテストで時刻を差し替えるためのフック。
	now func() time.Time

	// loginMu はログイン処理を直列化する。
	loginMu sync.Mutex
}

var _ RemoteSource = (*Client)(nil)

// NewClient はClientの新しいインスタンスを生成する。
// クッキーファイルが存在すれば読み込み、前回のセッションを復元する。
func NewClient(cfg *config.Config, factory SafeClientFactory, logger *slog.Logger) (*Client, error) {
	jar, err := newPersistentJar(cfg.CookiePath)
	if err != nil {
		return nil, fmt.Errorf("クッキーストアの初期化に失敗しました: %w", err)
	}

	httpClient := factory.NewSafeClient(cfg.FetchTimeout, cfg.FetchMaxSize)
	httpClient.Jar = jar

	return &Client{
		httpClient:       httpClient,
		jar:              jar,
		logger:           logger,
		segaID:           cfg.SegaID,
		segaPassword:     cfg.SegaPassword,
		maxBodySize:      cfg.FetchMaxSize,
		retryAttempts:    cfg.RetryAttempts,
		maintenanceStart: cfg.MaintenanceStartHour,
		maintenanceEnd:   cfg.MaintenanceEndHour,
		now:              time.Now,
	}, nil
}

// InMaintenanceWindow は現在がメンテナンス時間帯かどうかを返す。
func (c *Client) InMaintenanceWindow() bool {
	hour := c.now().Hour()
	return inMaintenanceWindow(hour, c.maintenanceStart, c.maintenanceEnd)
}

func inMaintenanceWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	// 日付をまたぐ時間帯（例: 23時〜2時）
	return hour >= start || hour < end
}

// ensureNotMaintenance はリモートへのリクエスト発行前に毎回呼ぶ。
func (c *Client) ensureNotMaintenance() error {
	if c.InMaintenanceWindow() {
		return model.NewMaintenanceError(
			fmt.Sprintf("メンテナンス時間帯（%02d:00-%02d:00）のためリクエストを抑止します",
				c.maintenanceStart, c.maintenanceEnd))
	}
	return nil
}

// get はGETリクエストを実行し、リダイレクト後の最終URLとボディを返す。
// ボディの読み込みはmaxBodySizeで打ち切る。
func (c *Client) get(ctx context.Context, rawURL string) (*url.URL, []byte, error) {
	if err := c.ensureNotMaintenance(); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, model.NewTransportError("リクエストの作成に失敗しました", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, model.NewTransportError("GETリクエストに失敗しました", err)
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, nil, model.NewTransportError("レスポンスの読み込みに失敗しました", err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		// 503はリモートの臨時メンテナンスとみなし、リトライ対象から外す
		return nil, nil, model.NewMaintenanceError(
			fmt.Sprintf("リモートが503を返しました url=%s", finalURL))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, model.NewTransportError(
			fmt.Sprintf("リモートが異常ステータスを返しました status=%d url=%s", resp.StatusCode, finalURL), nil)
	}

	return finalURL, body, nil
}

// postForm はフォームをPOSTし、リダイレクト後の最終URLとボディを返す。
func (c *Client) postForm(ctx context.Context, rawURL, referer string, form url.Values) (*url.URL, []byte, error) {
	if err := c.ensureNotMaintenance(); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, model.NewTransportError("リクエストの作成に失敗しました", err)
	}
	c.setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, model.NewTransportError("POSTリクエストに失敗しました", err)
	}
	defer resp.Body.Close()

	finalURL := resp.Request.URL
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, nil, model.NewTransportError("レスポンスの読み込みに失敗しました", err)
	}

	return finalURL, body, nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", mobileUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")
}

// CheckLoggedIn は認証セッションが有効かどうかを確認する。
func (c *Client) CheckLoggedIn(ctx context.Context) (bool, error) {
	finalURL, body, err := c.get(ctx, recordURL)
	if err != nil {
		return false, err
	}
	return !looksLikeLoginOrExpired(finalURL, string(body)), nil
}

// EnsureLoggedIn はセッションが無効であれば再ログインを行う。
// ログイン後も認証が通らない場合はauth_expiredエラーを返す。
func (c *Client) EnsureLoggedIn(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	ok, err := c.CheckLoggedIn(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	if err := c.login(ctx); err != nil {
		return err
	}

	ok, err = c.CheckLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewAuthExpiredError("ログインを試みましたが認証されませんでした")
	}
	return nil
}

// login は認証フローを実行する。
// トップページを取得してログインフォームの有無を確認し、
// フォームが存在すればSEGA IDとパスワードをPOSTする。
// 成功時はクッキーをファイルへ保存する。
func (c *Client) login(ctx context.Context) error {
	c.logger.Info("リモートサービスへのログインを開始します")

	pageURL, pageBody, err := c.get(ctx, baseURL)
	if err != nil {
		return err
	}
	page := string(pageBody)

	if !strings.Contains(page, `id="sidForm"`) {
		// ログインフォームが出ない場合、既存セッションが有効であればそのまま使う
		if looksLikeLoginOrExpired(pageURL, page) {
			return model.NewAuthExpiredError(
				fmt.Sprintf("ログインページの応答が想定外でした url=%s", pageURL))
		}
		if err := c.jar.Save(); err != nil {
			c.logger.Warn("クッキーの保存に失敗しました", slog.String("error", err.Error()))
		}
		return nil
	}

	postURL, err := pageURL.Parse(loginsidPath)
	if err != nil {
		return model.NewTransportError("ログインPOST先URLの解決に失敗しました", err)
	}

	form := url.Values{}
	form.Set("sid", c.segaID)
	form.Set("password", c.segaPassword)
	form.Set("retention", "1")

	finalURL, body, err := c.postForm(ctx, postURL.String(), pageURL.String(), form)
	if err != nil {
		return err
	}

	if looksLikeLoginOrExpired(finalURL, string(body)) {
		return model.NewAuthExpiredError(
			fmt.Sprintf("ログインに失敗しました url=%s", finalURL))
	}

	if err := c.jar.Save(); err != nil {
		c.logger.Warn("クッキーの保存に失敗しました", slog.String("error", err.Error()))
	}
	c.logger.Info("ログインに成功しました")
	return nil
}

// looksLikeLoginOrExpired はレスポンスがログイン要求またはセッション失効を
// 示しているかどうかを判定する。
func looksLikeLoginOrExpired(finalURL *url.URL, body string) bool {
	if finalURL != nil {
		if strings.HasPrefix(finalURL.Path, "/maimai-mobile/error/") {
			return true
		}
		if strings.Contains(finalURL.String(), "/common_auth/login") {
			return true
		}
		if strings.HasSuffix(finalURL.Hostname(), "am-all.net") &&
			strings.Contains(finalURL.String(), "/common_auth/") {
			return true
		}
	}
	if strings.Contains(body, "Please login again.") {
		return true
	}
	if strings.Contains(body, "ERROR CODE") || strings.Contains(body, "title_error.png") {
		return true
	}
	if strings.Contains(body, "The connection time has been expired") {
		return true
	}
	return false
}

// fetchAuthedPage は認証済みセッションでページを取得する。
// 通信エラーは限定回数リトライし、セッション失効を検出した場合は
// 1回だけ再ログインして取り直す。
func (c *Client) fetchAuthedPage(ctx context.Context, rawURL string) ([]byte, error) {
	fetch := func() ([]byte, error) {
		var page []byte
		err := withRetry(ctx, c.logger, c.retryAttempts, func() error {
			finalURL, body, err := c.get(ctx, rawURL)
			if err != nil {
				return err
			}
			if looksLikeLoginOrExpired(finalURL, string(body)) {
				return model.NewAuthExpiredError(
					fmt.Sprintf("セッションが失効しています url=%s", finalURL))
			}
			page = body
			return nil
		})
		return page, err
	}

	page, err := fetch()
	if err == nil {
		return page, nil
	}
	if !model.IsAuthExpired(err) {
		return nil, err
	}

	c.logger.Info("セッション失効を検出したため再ログインします", slog.String("url", rawURL))
	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}
	return fetch()
}

// FetchPlayerSummary はRemoteSourceを実装する。
func (c *Client) FetchPlayerSummary(ctx context.Context) (*model.PlayerSummary, error) {
	body, err := c.fetchAuthedPage(ctx, playerDataURL)
	if err != nil {
		return nil, err
	}
	return parsePlayerSummary(body)
}

// FetchRecentPlays はRemoteSourceを実装する。
func (c *Client) FetchRecentPlays(ctx context.Context) ([]model.PlayEntry, error) {
	body, err := c.fetchAuthedPage(ctx, recordURL)
	if err != nil {
		return nil, err
	}
	return parseRecentPlays(body, c.now())
}

// FetchScoreList はRemoteSourceを実装する。
func (c *Client) FetchScoreList(ctx context.Context, diffIndex int) ([]model.ScoreRecord, error) {
	if diffIndex < 0 || diffIndex > 4 {
		return nil, fmt.Errorf("難易度インデックスが範囲外です: %d", diffIndex)
	}
	body, err := c.fetchAuthedPage(ctx, fmt.Sprintf(scoreListURL, diffIndex))
	if err != nil {
		return nil, err
	}
	return parseScoreList(body, diffIndex, c.now())
}
