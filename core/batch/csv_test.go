package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestParseFile(t *testing.T) {
	t.Run("chinese headers", func(t *testing.T) {
		content := "学号,课程代码,分数,成绩类型,学年,学期,评语\n" +
			"2024001,CS101,85,final,2024-2025,春季,表现良好\n"

		records, err := ParseFile([]byte(content))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2024001", records[0]["student_id"])
		assert.Equal(t, "CS101", records[0]["course_code"])
		assert.Equal(t, "85", records[0]["score"])
		assert.Equal(t, "final", records[0]["grade_type"])
		assert.Equal(t, "2024-2025", records[0]["academic_year"])
		assert.Equal(t, "春季", records[0]["semester"])
		assert.Equal(t, "表现良好", records[0]["comments"])
	})

	t.Run("english headers with BOM", func(t *testing.T) {
		content := append([]byte{0xEF, 0xBB, 0xBF},
			[]byte("student_id,course_code,score\n2024001,CS101,85\n")...)

		records, err := ParseFile(content)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2024001", records[0]["student_id"])
	})

	t.Run("gbk encoded sheet", func(t *testing.T) {
		utf := "学号,课程代码,分数\n2024001,CS101,85\n"
		gbk, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(utf))
		require.NoError(t, err)

		records, err := ParseFile(gbk)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2024001", records[0]["student_id"])
		assert.Equal(t, "85", records[0]["score"])
	})

	t.Run("delimiter detection", func(t *testing.T) {
		for _, content := range []string{
			"student_id\tcourse_code\tscore\n2024001\tCS101\t85\n",
			"student_id;course_code;score\n2024001;CS101;85\n",
			"student_id|course_code|score\n2024001|CS101|85\n",
		} {
			records, err := ParseFile([]byte(content))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "CS101", records[0]["course_code"])
		}
	})

	t.Run("blank rows dropped", func(t *testing.T) {
		content := "student_id,score\n2024001,85\n,\n2024002,90\n"

		records, err := ParseFile([]byte(content))
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "2024002", records[1]["student_id"])
	})

	t.Run("unknown columns kept", func(t *testing.T) {
		content := "student_id,Remarks\n2024001,ok\n"

		records, err := ParseFile([]byte(content))
		require.NoError(t, err)
		assert.Equal(t, "ok", records[0]["remarks"])
	})

	t.Run("alias headers", func(t *testing.T) {
		content := "学生ID,课程编号,成绩,备注\n2024001,CS101,85,ok\n"

		records, err := ParseFile([]byte(content))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2024001", records[0]["student_id"])
		assert.Equal(t, "CS101", records[0]["course_code"])
		assert.Equal(t, "85", records[0]["score"])
		assert.Equal(t, "ok", records[0]["comments"])
	})

	t.Run("excel upload rejected", func(t *testing.T) {
		xlsx := []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}
		_, err := ParseFile(xlsx)
		assert.Equal(t, ErrUnsupportedFormat, err)

		xls := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1}
		_, err = ParseFile(xls)
		assert.Equal(t, ErrUnsupportedFormat, err)
	})

	t.Run("empty file", func(t *testing.T) {
		records, err := ParseFile(nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
