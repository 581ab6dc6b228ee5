package batch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/tkamala/darasa/core"
)

var ErrUnsupportedFormat = errors.New("unsupported file format, upload a CSV file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Excel container signatures; .xlsx is a zip, .xls an OLE compound file.
var excelSignatures = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
	{0xD0, 0xCF, 0x11, 0xE0},
}

// columnMapping normalizes Chinese and English header names to the
// canonical row keys.
var columnMapping = map[string]string{
	"学号":            "student_id",
	"学生id":          "student_id",
	"student_id":    "student_id",
	"课程代码":          "course_code",
	"课程编号":          "course_code",
	"course_code":   "course_code",
	"课程名称":          "course_name",
	"course_name":   "course_name",
	"分数":            "score",
	"成绩":            "score",
	"score":         "score",
	"满分":            "max_score",
	"max_score":     "max_score",
	"成绩类型":          "grade_type",
	"grade_type":    "grade_type",
	"权重":            "weight",
	"weight":        "weight",
	"学年":            "academic_year",
	"academic_year": "academic_year",
	"学期":            "semester",
	"semester":      "semester",
	"评语":            "comments",
	"备注":            "comments",
	"comments":      "comments",
	"反馈":            "feedback",
	"feedback":      "feedback",
}

// decodeContent returns the file content as UTF-8. A UTF-8 BOM is
// stripped; invalid UTF-8 is assumed to be a legacy GBK export.
func decodeContent(content []byte) ([]byte, error) {
	if bytes.HasPrefix(content, utf8BOM) {
		return content[len(utf8BOM):], nil
	}
	if utf8.Valid(content) {
		return content, nil
	}
	return simplifiedchinese.GBK.NewDecoder().Bytes(content)
}

// detectDelimiter picks the most frequent candidate delimiter in the
// first KiB of the file. Ties go to the comma.
func detectDelimiter(content []byte) rune {
	sample := content
	if len(sample) > 1024 {
		sample = sample[:1024]
	}

	best, bestCount := ',', 0
	for _, cand := range []rune{',', '\t', ';', '|'} {
		if n := bytes.Count(sample, []byte(string(cand))); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// ParseFile reads an uploaded grade sheet into row maps keyed by the
// canonical column names. Unknown columns are kept under their
// lowercased header; rows that are entirely blank are dropped.
func ParseFile(content []byte) ([]core.Record, error) {
	for _, sig := range excelSignatures {
		if bytes.HasPrefix(content, sig) {
			return nil, ErrUnsupportedFormat
		}
	}

	decoded, err := decodeContent(content)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = detectDelimiter(decoded)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnMapping[name]; ok {
			name = canonical
		}
		columns[i] = name
	}

	var records []core.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := make(core.Record, len(columns))
		blank := true
		for i, col := range columns {
			if i >= len(row) {
				break
			}
			val := strings.TrimSpace(row[i])
			if val != "" {
				blank = false
			}
			rec[col] = val
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records, nil
}
