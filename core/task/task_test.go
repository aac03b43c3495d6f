package task

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
)

func intPtr(i int) *int { return &i }

func TestTask_VisibleTo(t *testing.T) {
	tsk := Task{User: 7, Degree: intPtr(3)}

	assert.True(t, tsk.VisibleTo(7, 0), "assignee")
	assert.True(t, tsk.VisibleTo(8, 3), "same degree")
	assert.False(t, tsk.VisibleTo(8, 4), "other degree")
	assert.False(t, tsk.VisibleTo(8, 0), "no degree")
	assert.False(t, Task{User: 7}.VisibleTo(8, 0), "task without degree")
}

func TestGroupByStatus(t *testing.T) {
	t1 := Task{ID: 1, Status: StatusNotCompleted}
	t2 := Task{ID: 2, Status: StatusInProgress}
	t3 := Task{ID: 3, Status: StatusCompleted}
	t4 := Task{ID: 4, Status: StatusNotCompleted}

	grp := GroupByStatus([]Task{t1, t2, t3, t4})
	assert.Equal(t, []Task{t1, t4}, grp.NotCompleted)
	assert.Equal(t, []Task{t2}, grp.InProgress)
	assert.Equal(t, []Task{t3}, grp.Completed)

	empty := GroupByStatus(nil)
	assert.NotNil(t, empty.NotCompleted)
	assert.NotNil(t, empty.InProgress)
	assert.NotNil(t, empty.Completed)
}

func TestUpdateTask_apply(t *testing.T) {
	orig := Task{
		ID:         1,
		Title:      "Read chapter 1",
		User:       2,
		Degree:     intPtr(1),
		Deadline:   core.Today(),
		Importance: ImportanceLow,
		Status:     StatusNotCompleted,
	}
	desc := "  pages 1-20 "
	deadline := core.NewDate(orig.Deadline.AddDate(0, 0, 3))

	got := UpdateTask{Description: &desc, Deadline: &deadline, Importance: ImportanceHigh}.apply(orig)

	want := orig
	want.Description = "pages 1-20"
	want.Deadline = deadline
	want.Importance = ImportanceHigh
	assert.Equal(t, want, got)
}

func TestAdditionPath(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "AdditionForTasks/report.pdf"},
		{"my report.pdf", "AdditionForTasks/my_report.pdf"},
		{"../../etc/passwd", "AdditionForTasks/passwd"},
		{`C:\Users\me\notes.txt`, "AdditionForTasks/notes.txt"},
		{"", "AdditionForTasks/file"},
		{"..", "AdditionForTasks/file"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, additionPath(tt.filename))
		})
	}
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	err := validate.Struct(UpdateTask{Importance: "urgent", Status: "done"})
	require.Error(t, err)
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, vErrs, 2)

	msgs := map[string]string{}
	for _, vErr := range vErrs {
		msgs[vErr.Field()] = vErr.Translate(translator)
	}
	assert.Equal(t, map[string]string{
		"importance": "importance must be one of: Yuqori, O'rta, Past",
		"status":     "status must be one of: Yakunlanmagan, Bajarilayotgan, Yakunlangan",
	}, msgs)

	assert.NoError(t, validate.Struct(UpdateTask{Importance: ImportanceMedium, Status: StatusCompleted}))
}
