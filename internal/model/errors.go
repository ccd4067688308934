package model

import (
	"errors"
	"fmt"
)

// ErrorKind は同期処理で発生するエラーの分類。
// コーディネータとリトライ戦略はこの分類に基づいて挙動を決める。
type ErrorKind string

const (
	// ErrKindAuthExpired は認証セッションの失効。再ログインを1回試み、
	// それも失敗した場合のみ呼び出し元に伝播する。
	ErrKindAuthExpired ErrorKind = "auth_expired"
	// ErrKindMaintenance はリモートのメンテナンス時間帯。エラーではなくスキップとして扱う。
	ErrKindMaintenance ErrorKind = "maintenance"
	// ErrKindTransport は通信の失敗。限定回数のリトライ対象。
	ErrKindTransport ErrorKind = "transport"
	// ErrKindMalformedDocument はHTMLの構造が期待と異なりパースできなかったことを示す。
	ErrKindMalformedDocument ErrorKind = "malformed_document"
	// ErrKindStore は永続化の失敗。サイクルの残りステップを中断するが、
	// コミット済みトランザクションには影響しない。
	ErrKindStore ErrorKind = "store"
)

// SyncError は分類付きの同期エラー。errors.Is/Asで分類を判定できる。
type SyncError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error はerrorインターフェースを実装する。
func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
}

// Unwrap はラップされた元のエラーを返す。
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewAuthExpiredError は認証失効エラーを生成する。
func NewAuthExpiredError(msg string) *SyncError {
	return &SyncError{Kind: ErrKindAuthExpired, Msg: msg}
}

// NewMaintenanceError はメンテナンス時間帯エラーを生成する。
func NewMaintenanceError(msg string) *SyncError {
	return &SyncError{Kind: ErrKindMaintenance, Msg: msg}
}

// NewTransportError は通信エラーを生成する。
func NewTransportError(msg string, err error) *SyncError {
	return &SyncError{Kind: ErrKindTransport, Msg: msg, Err: err}
}

// NewMalformedDocumentError はパース失敗エラーを生成する。
func NewMalformedDocumentError(msg string, err error) *SyncError {
	return &SyncError{Kind: ErrKindMalformedDocument, Msg: msg, Err: err}
}

// NewStoreError は永続化エラーを生成する。
func NewStoreError(msg string, err error) *SyncError {
	return &SyncError{Kind: ErrKindStore, Msg: msg, Err: err}
}

// KindOf はエラーの分類を返す。SyncErrorでない場合はErrKindTransportとみなす
// （分類不能な下位エラーは通信エラーと同じリトライ方針で扱う）。
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrKindTransport
}

// IsMaintenance はメンテナンス時間帯エラーかどうかを返す。
func IsMaintenance(err error) bool {
	return hasKind(err, ErrKindMaintenance)
}

// IsAuthExpired は認証失効エラーかどうかを返す。
func IsAuthExpired(err error) bool {
	return hasKind(err, ErrKindAuthExpired)
}

func hasKind(err error, kind ErrorKind) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
