package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// achievementPercent は1万倍固定小数点の達成率をパーセント値へ変換する。
func achievementPercent(x10000 *int64) *float64 {
	if x10000 == nil {
		return nil
	}
	v := float64(*x10000) / 10000.0
	return &v
}
