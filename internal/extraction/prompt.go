package extraction

import (
	"fmt"
	"strings"
)

// Abbreviation normalization hints carried into the subject instruction,
// matching how students commonly shorten Vietnamese subject names.
var subjectHints = []string{
	`"lý" hoặc "ly" -> "Vật lý"`,
	`"anh" hoặc "tieng anh" hoặc "ta" -> "Tiếng Anh"`,
	`"văn" hoặc "van" hoặc "ngu van" -> "Ngữ văn"`,
	`"toán" hoặc "toan" -> "Toán"`,
	`"hóa" hoặc "hoa" hoặc "hoa hoc" -> "Hóa học"`,
	`"sinh" hoặc "sinh hoc" -> "Sinh học"`,
	`"sử" hoặc "su" hoặc "lich su" -> "Lịch sử"`,
	`"địa" hoặc "dia" hoặc "dia ly" -> "Địa lý"`,
	`"gdcd" -> "Giáo dục công dân"`,
	`"tin" hoặc "tin hoc" -> "Tin học"`,
	`"cn" hoặc "cong nghe" -> "Công nghệ"`,
}

func subjectInstruction(subjects []string) string {
	if len(subjects) == 0 {
		return "Tự động chuẩn hóa tên môn học"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "BẮT BUỘC: Tên môn học phải CHÍNH XÁC khớp với MỘT trong các môn sau (không được tạo môn mới): %s.\n\n", strings.Join(subjects, ", "))
	b.WriteString("Quy tắc chuẩn hóa:\n")
	for _, hint := range subjectHints {
		b.WriteString("- " + hint + "\n")
	}
	b.WriteString("\nNếu không khớp chính xác với bất kỳ môn nào, chọn môn gần nghĩa nhất trong danh sách.")
	return b.String()
}

func singlePrompt(text string, defaultMaxScore float64, examTypes, subjects []string) string {
	return fmt.Sprintf(`Trích xuất thông tin điểm học tập từ văn bản này: %q.
Nếu không có thông tin điểm số tối đa, suy đoán %g trừ khi ngữ cảnh rõ ràng chỉ ra khác.
%s

Phân loại loại bài kiểm tra vào đúng một trong các loại sau: %s.
Chọn loại phù hợp nhất với ngữ cảnh. Nếu không chắc chắn, sử dụng "Khác".`,
		text, defaultMaxScore, subjectInstruction(subjects), strings.Join(examTypes, ", "))
}

func bulkPrompt(text string, defaultMaxScore float64, examTypes, subjects []string) string {
	return fmt.Sprintf(`Trích xuất TẤT CẢ thông tin điểm học tập từ văn bản này: %q.
Văn bản này có thể chứa NHIỀU môn học và điểm số khác nhau.

Với mỗi môn học được đề cập:
1. %s
2. Nếu không có thông tin điểm số tối đa, suy đoán %g trừ khi ngữ cảnh rõ ràng chỉ ra khác.
3. Phân loại loại bài kiểm tra vào đúng một trong các loại sau: %s. Chọn loại phù hợp nhất với ngữ cảnh. Nếu không chắc chắn, sử dụng "Khác".
4. Nếu có nhiều môn học dùng chung một loại bài kiểm tra, áp dụng cùng loại cho tất cả.

Trả về một MẢNG các điểm số, mỗi phần tử là một môn học riêng biệt.`,
		text, subjectInstruction(subjects), defaultMaxScore, strings.Join(examTypes, ", "))
}

func imagePrompt(defaultMaxScore float64, examTypes, subjects []string) string {
	return fmt.Sprintf(`Phân tích ảnh này chứa thông tin điểm số. Trích xuất tất cả các thông tin điểm số khác biệt.
Đối với mỗi thông tin:
1. Xác định tên môn học (%s).
2. Xác định điểm số và điểm số tối đa. Nếu điểm số tối đa không rõ ràng, suy đoán %g hoặc dựa trên ngữ cảnh (ví dụ, 10/10, 100/100).
3. Phân loại loại bài kiểm tra vào đúng một trong các loại sau: %s. Sử dụng "Khác" nếu không chắc chắn.`,
		subjectInstruction(subjects), defaultMaxScore, strings.Join(examTypes, ", "))
}
