package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/otolog/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:    code,
		Message: message,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError,
		"internal_error", "内部エラーが発生しました。")
}

// WriteSyncErrorResponse は同期エラーを分類に応じたHTTPレスポンスに変換する。
// メンテナンス時間帯は503、リモート起因の障害は502、ストア障害は500を返す。
func WriteSyncErrorResponse(w http.ResponseWriter, err error) {
	switch model.KindOf(err) {
	case model.ErrKindMaintenance:
		w.Header().Set("Retry-After", "3600")
		WriteErrorResponse(w, http.StatusServiceUnavailable,
			"maintenance", "リモートサービスがメンテナンス時間帯です。")
	case model.ErrKindAuthExpired:
		WriteErrorResponse(w, http.StatusBadGateway,
			"auth_expired", "リモートサービスへの再ログインに失敗しました。")
	case model.ErrKindTransport:
		WriteErrorResponse(w, http.StatusBadGateway,
			"upstream_error", "リモートサービスとの通信に失敗しました。")
	case model.ErrKindMalformedDocument:
		WriteErrorResponse(w, http.StatusBadGateway,
			"malformed_document", "リモートサービスの応答を解釈できませんでした。")
	default:
		WriteInternalServerError(w)
	}
}
