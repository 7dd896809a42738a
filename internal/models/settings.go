package models

// SortOption enumerates the score list orderings.
type SortOption string

const (
	SortDateDesc    SortOption = "date_desc"
	SortDateAsc     SortOption = "date_asc"
	SortSubjectAsc  SortOption = "subject_asc"
	SortSubjectDesc SortOption = "subject_desc"
	SortScoreHigh   SortOption = "score_high"
	SortScoreLow    SortOption = "score_low"
)

// CustomFactor maps an exam-type label to a weighting multiplier.
type CustomFactor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// SemesterRange is an explicit month window for one semester. Ranges where
// start_month > end_month wrap the year boundary.
type SemesterRange struct {
	StartMonth int `json:"start_month"`
	EndMonth   int `json:"end_month"`
}

// AppSettings is the per-user configuration blob.
type AppSettings struct {
	SortOption       SortOption      `json:"sort_option"`
	Rounding         int             `json:"rounding"`
	ShowDates        *bool           `json:"show_dates"`
	DefaultMaxScore  float64         `json:"default_max_score"`
	SemestersPerYear int             `json:"semesters_per_year"`
	SemesterRanges   []SemesterRange `json:"semester_ranges,omitempty"`
	CustomSubjects   []string        `json:"custom_subjects"`
	CustomFactors    []CustomFactor  `json:"custom_factors"`
	Language         string          `json:"language"`
}

// DefaultFactors seeds the factor list on first run.
func DefaultFactors() []CustomFactor {
	return []CustomFactor{
		{ID: "1", Name: "Học kỳ", Multiplier: 3},
		{ID: "2", Name: "Giữa học kỳ", Multiplier: 2},
		{ID: "3", Name: "Kiểm tra 15 phút", Multiplier: 1},
		{ID: "4", Name: "Kiểm tra thường xuyên", Multiplier: 1},
		{ID: "5", Name: "Khác", Multiplier: 1},
	}
}

// DefaultSubjects seeds the closed subject list on first run.
func DefaultSubjects() []string {
	return []string{
		"Toán",
		"Ngữ văn",
		"Tiếng Anh",
		"Vật lý",
		"Hóa học",
		"Sinh học",
		"Lịch sử",
		"Địa lý",
		"Giáo dục công dân",
		"Công nghệ",
		"Tin học",
		"Thể dục",
		"Âm nhạc",
		"Mỹ thuật",
		"Giáo dục quốc phòng và an ninh",
		"Giáo dục kinh tế và pháp luật",
	}
}

// DefaultSettings returns the hard-coded configuration baseline.
func DefaultSettings() AppSettings {
	return AppSettings{
		SortOption:       SortDateDesc,
		Rounding:         1,
		ShowDates:        boolPtr(true),
		DefaultMaxScore:  10,
		SemestersPerYear: 2,
		CustomSubjects:   DefaultSubjects(),
		CustomFactors:    DefaultFactors(),
		Language:         "vi",
	}
}

// Normalize backfills missing or out-of-range fields from the defaults.
// Saved blobs from older versions may lack newer fields entirely, so every
// field is checked for presence rather than trusted.
func (s AppSettings) Normalize() AppSettings {
	def := DefaultSettings()
	switch s.SortOption {
	case SortDateDesc, SortDateAsc, SortSubjectAsc, SortSubjectDesc, SortScoreHigh, SortScoreLow:
	default:
		s.SortOption = def.SortOption
	}
	if s.Rounding < 0 || s.Rounding > 2 {
		s.Rounding = def.Rounding
	}
	// ShowDates is a pointer so a saved blob without the field can be told
	// apart from an explicit false.
	if s.ShowDates == nil {
		s.ShowDates = def.ShowDates
	}
	if s.DefaultMaxScore <= 0 {
		s.DefaultMaxScore = def.DefaultMaxScore
	}
	if s.SemestersPerYear < 1 {
		s.SemestersPerYear = def.SemestersPerYear
	}
	if len(s.CustomFactors) == 0 {
		s.CustomFactors = DefaultFactors()
	}
	if len(s.CustomSubjects) == 0 {
		s.CustomSubjects = DefaultSubjects()
	}
	if s.Language != "vi" && s.Language != "en" {
		s.Language = def.Language
	}
	ranges := s.SemesterRanges[:0]
	for _, r := range s.SemesterRanges {
		if r.StartMonth >= 1 && r.StartMonth <= 12 && r.EndMonth >= 1 && r.EndMonth <= 12 {
			ranges = append(ranges, r)
		}
	}
	s.SemesterRanges = ranges
	return s
}

func boolPtr(v bool) *bool { return &v }

// ExamTypeNames lists the factor names, used as the closed exam-type set for extraction.
func (s AppSettings) ExamTypeNames() []string {
	names := make([]string, 0, len(s.CustomFactors))
	for _, f := range s.CustomFactors {
		names = append(names, f.Name)
	}
	return names
}
