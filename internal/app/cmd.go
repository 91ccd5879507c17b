package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandCreateAccount はコンソールからアカウントを新規作成することを示す。
	// セルフサービス登録は提供しないため、アカウント作成はこの経路のみ。
	CommandCreateAccount Command = "createaccount"
	// CommandLinkTag は未所有状態のタグを新規登録することを示す。
	// 物理ラベルの製造・印字バッチに対応する運用コマンド。
	CommandLinkTag Command = "linktag"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "createaccount":
		return CommandCreateAccount
	case "linktag":
		return CommandLinkTag
	default:
		return CommandServe
	}
}
