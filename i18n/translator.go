package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "dialect" or "query").
type Translator interface {
	Message(code string, data map[string]string) string
	// Tag is the language engine messages are rendered in.
	Tag() language.Tag
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Tag() language.Tag {
	if t.lang == "ja" {
		return language.Japanese
	}
	return language.English
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg := t.lookup(code)
	if msg == "" {
		return code
	}
	for _, k := range []string{"dialect", "engine", "query", "key", "function", "argument"} {
		if v, ok := data[k]; ok && v != "" {
			msg += " (" + k + "=" + v + ")"
		}
	}
	return msg
}

func (t dictTranslator) lookup(code string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "unsupported_dialect":
			return "サポートされていないスキーマのバージョンです"
		case "unsupported_query":
			return "クエリはオブジェクトのJSONに対してのみ利用できます"
		case "query_miss":
			return "クエリに一致する要素がありません"
		case "schema_compile":
			return "スキーマのコンパイルに失敗しました"
		case "unknown_keyword":
			return "未知のキーワードがあります"
		case "unknown_validator":
			return "バリデータが登録されていません"
		case "unknown_engine":
			return "未知のエンジンです"
		case "invalid_definition":
			return "バリデータの定義が不正です"
		case "duplicate_key":
			return "キーが重複しています"
		case "unknown_function":
			return "未知の関数です"
		case "invalid_argument":
			return "引数が不正です"
		}
	default: // "en"
		switch code {
		case "unsupported_dialect":
			return "unsupported schema dialect"
		case "unsupported_query":
			return "query only supported with object json"
		case "query_miss":
			return "query did not match any element in the data"
		case "schema_compile":
			return "schema compilation failed"
		case "unknown_keyword":
			return "unknown keyword"
		case "unknown_validator":
			return "validator not registered"
		case "unknown_engine":
			return "unknown engine"
		case "invalid_definition":
			return "invalid validator definition"
		case "duplicate_key":
			return "duplicate key"
		case "unknown_function":
			return "unknown function"
		case "invalid_argument":
			return "invalid argument"
		}
	}
	return ""
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }

// Printer returns a message printer for the current Translator's language.
func Printer() *message.Printer { return message.NewPrinter(currentTranslator.Tag()) }
