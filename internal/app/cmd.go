package app

// Command はプロセスの起動モードを表す。
// 1バイナリで配布し、サブコマンドでAPIサーバー・同期ワーカー・
// マイグレーションを切り替える。
type Command string

const (
	// CommandServe はAPIサーバーと同期スケジューラを同一プロセスで起動する。
	CommandServe Command = "serve"
	// CommandWorker は同期スケジューラのみを起動する（APIなし）。
	CommandWorker Command = "worker"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のサーバーの/healthを叩いて終了する。
	// シェルを持たないdistrolessイメージのDocker HEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands は受け付けるサブコマンドの一覧。
var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数なし・未知のサブコマンドはserveにフォールバックする。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
