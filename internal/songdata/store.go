package songdata

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store は現在有効なIndexを保持し、data.jsonの更新を監視して差し替える。
// 読み込みに失敗した場合は直前のIndexを維持する。
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	idx *Index
}

// NewStore はdata.jsonを読み込んでStoreを生成する。
// ファイルが存在しない場合も起動は継続する（照会は常に「不明」になる）。
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	idx, err := LoadIndex(path)
	if err != nil {
		return nil, err
	}

	if idx == nil {
		logger.Warn("曲データが見つかりません。譜面定数なしで続行します",
			slog.String("path", path))
	} else {
		logger.Info("曲データを読み込みました",
			slog.String("path", path),
			slog.Int("sheets", idx.Size()))
	}

	return &Store{path: path, logger: logger, idx: idx}, nil
}

// Current は現在有効なIndexを返す。未読み込みの場合はnil
// （Indexのメソッドはnilレシーバを許容する）。
func (s *Store) Current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

// Watch はdata.jsonの変更を監視し、書き込みのたびに再読み込みする。
// ctxが取り消されるまでブロックする。
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		// ファイルがまだ存在しない場合は監視せずに終了を待つ
		s.logger.Warn("曲データの監視を開始できませんでした",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		<-ctx.Done()
		return nil
	}

	s.logger.Info("曲データの監視を開始します", slog.String("path", s.path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// エディタやツールはリネームで置き換えることが多いため、
			// WriteだけでなくCreateも再読み込みの対象にする
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			idx, err := LoadIndex(s.path)
			if err != nil || idx == nil {
				s.logger.Error("曲データの再読み込みに失敗しました。直前のデータを維持します",
					slog.String("path", s.path),
					slog.Any("error", err))
				continue
			}

			s.mu.Lock()
			s.idx = idx
			s.mu.Unlock()

			s.logger.Info("曲データを再読み込みしました",
				slog.String("path", s.path),
				slog.Int("sheets", idx.Size()))

			// アトミックな置き換えでinodeが変わった場合に備えて再登録する
			_ = watcher.Add(s.path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("曲データの監視でエラーが発生しました",
				slog.String("error", err.Error()))
		}
	}
}
