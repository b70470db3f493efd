package translation

import "fmt"

func completionPrompt(text, language string) string {
	return fmt.Sprintf("Please help me to translate, `%s` to %s", text, language)
}

func chatPrompt(text, language string) string {
	return fmt.Sprintf("Please help me to translate, `%s` to %s, please return only translated content not include the origin text", text, language)
}

func batchPrompt(payload []byte, language string) string {
	return fmt.Sprintf("Translate the \"text\" field of every object in this JSON array to %s. "+
		"Reply with a JSON array only: the same objects with the same \"id\" values, "+
		"\"text\" replaced by its translation, and nothing of the original text.\n\n%s", language, payload)
}
