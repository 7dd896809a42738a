// Package i18n holds the curated user-facing message catalogue. Collaborator
// error text never reaches clients; every user-visible failure maps to one of
// these keys.
package i18n

// Message keys.
const (
	KeyTextTooShort  = "text_too_short"
	KeyNoScoreFound  = "no_score_found"
	KeyBareNumber    = "bare_number"
	KeyGreetingInput = "greeting_input"
	KeyExtractFailed = "extract_failed"
	KeyImageFailed   = "image_failed"
)

const defaultLanguage = "vi"

var catalogue = map[string]map[string]string{
	"vi": {
		KeyTextTooShort:  "Văn bản quá ngắn. Vui lòng nhập thông tin điểm số đầy đủ hơn.",
		KeyNoScoreFound:  "Không tìm thấy điểm số trong văn bản. Vui lòng nhập điểm số (ví dụ: 'Toán 9 điểm' hoặc 'Got 8.5 in Physics').",
		KeyBareNumber:    "Vui lòng nhập đầy đủ thông tin môn học và điểm số (ví dụ: 'Toán 9 điểm' thay vì chỉ '9').",
		KeyGreetingInput: "Vui lòng nhập thông tin điểm số. Ví dụ: 'Toán 9 điểm cuối học kỳ' hoặc 'Got Physics 8.5 in midterm'.",
		KeyExtractFailed: "Không thể hiểu được điểm số. Vui lòng thử lại với câu rõ ràng hơn.",
		KeyImageFailed:   "Không thể phân tích ảnh. Vui lòng đảm bảo ảnh chứa điểm số rõ ràng.",
	},
	"en": {
		KeyTextTooShort:  "The text is too short. Please enter more complete score information.",
		KeyNoScoreFound:  "No score found in the text. Please include a score (e.g. 'Got 8.5 in Physics').",
		KeyBareNumber:    "Please include both the subject and the score (e.g. 'Math 9' instead of just '9').",
		KeyGreetingInput: "Please enter score information, e.g. 'Got Physics 8.5 in midterm'.",
		KeyExtractFailed: "Failed to interpret the score. Please try again with a clearer sentence.",
		KeyImageFailed:   "Failed to analyze the image. Please ensure it contains legible academic scores.",
	},
}

// Message resolves a key for the given language, falling back to Vietnamese.
func Message(lang, key string) string {
	if msgs, ok := catalogue[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return catalogue[defaultLanguage][key]
}
