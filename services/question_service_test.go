package services

import (
	"errors"
	"testing"

	"qbank/models"
)

func TestCreateQuestionValidation(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	tests := []struct {
		name    string
		input   QuestionInput
		wantErr error
	}{
		{
			name: "single option",
			input: QuestionInput{
				LessonID: lesson.ID,
				Text:     "Lonely?",
				Options:  []OptionInput{{Text: "Yes", IsCorrect: true}},
			},
		},
		{
			name: "no correct option",
			input: QuestionInput{
				LessonID: lesson.ID,
				Text:     "Pick one",
				Options: []OptionInput{
					{Text: "A"}, {Text: "B"},
				},
			},
		},
		{
			name: "two correct options",
			input: QuestionInput{
				LessonID: lesson.ID,
				Text:     "Pick one",
				Options: []OptionInput{
					{Text: "A", IsCorrect: true}, {Text: "B", IsCorrect: true},
				},
			},
		},
		{
			name: "option with neither text nor image",
			input: QuestionInput{
				LessonID: lesson.ID,
				Text:     "Pick one",
				Options: []OptionInput{
					{Text: "A", IsCorrect: true}, {Text: "   "},
				},
			},
		},
		{
			name: "question with neither text nor image",
			input: QuestionInput{
				LessonID: lesson.ID,
				Options: []OptionInput{
					{Text: "A", IsCorrect: true}, {Text: "B"},
				},
			},
		},
		{
			name: "unknown lesson",
			input: QuestionInput{
				LessonID: 9999,
				Text:     "Homeless question",
				Options: []OptionInput{
					{Text: "A", IsCorrect: true}, {Text: "B"},
				},
			},
			wantErr: ErrMissingParent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(&tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
			} else if !IsValidation(err) {
				t.Fatalf("Create() error = %v, want ValidationError", err)
			}

			// rejected mutations must not leave partial writes behind
			if count := countRows(t, db, &models.Question{}); count != 0 {
				t.Errorf("question count = %d after rejected create, want 0", count)
			}
			if count := countRows(t, db, &models.Option{}); count != 0 {
				t.Errorf("option count = %d after rejected create, want 0", count)
			}
		})
	}
}

func TestCreateQuestion(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	question, err := s.Create(&QuestionInput{
		LessonID:    lesson.ID,
		Text:        "What is 3*3?",
		Explanation: "Multiply three by itself.",
		Options:     fourOptions([4]string{"6", "9", "12", "33"}, 1),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if question.ID == 0 {
		t.Error("Create() returned a question without an id")
	}
	if question.Text == nil || *question.Text != "What is 3*3?" {
		t.Errorf("Create() text = %v, want %q", question.Text, "What is 3*3?")
	}
	if question.Explanation == nil || *question.Explanation != "Multiply three by itself." {
		t.Errorf("Create() explanation = %v", question.Explanation)
	}
	if len(question.Options) != 4 {
		t.Fatalf("Create() persisted %d options, want 4", len(question.Options))
	}

	correct := 0
	for _, opt := range question.Options {
		if opt.IsCorrect {
			correct++
			if opt.Text == nil || *opt.Text != "9" {
				t.Errorf("correct option text = %v, want %q", opt.Text, "9")
			}
		}
	}
	if correct != 1 {
		t.Errorf("persisted question has %d correct options, want 1", correct)
	}
}

func TestCreateQuestionImageOnly(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Art", "Painting", "Impressionism")

	question, err := s.Create(&QuestionInput{
		LessonID:  lesson.ID,
		ImagePath: "uploads/questions/1_abcd1234_monet.png",
		Options: []OptionInput{
			{Text: "Monet", IsCorrect: true},
			{ImagePath: "uploads/options/1_abcd1234_signature.png"},
		},
	})
	if err != nil {
		t.Fatalf("Create(image-only) failed: %v", err)
	}
	if question.Text != nil {
		t.Errorf("image-only question text = %v, want nil", question.Text)
	}
	if question.ImagePath == nil {
		t.Error("image-only question lost its image path")
	}
}

func TestCreateQuestionDuplicateText(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	input := QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 2+2?",
		Options:  fourOptions([4]string{"3", "4", "5", "6"}, 1),
	}
	if _, err := s.Create(&input); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err := s.Create(&input); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("Create(duplicate text, same lesson) error = %v, want ErrDuplicateName", err)
	}

	// the same text under a different lesson is fine
	other := seedLesson(t, db, "Math 2", "Algebra 2", "Equations 2")
	input.LessonID = other.ID
	if _, err := s.Create(&input); err != nil {
		t.Fatalf("Create(same text, other lesson) failed: %v", err)
	}
}

func TestUpdateQuestionReconcilesOptions(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	question, err := s.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 10/2?",
		Options:  fourOptions([4]string{"2", "5", "10", "20"}, 1),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	kept := question.Options[1] // "5"
	updated, err := s.Update(question.ID, &QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 10 divided by 2?",
		Options: []OptionInput{
			{ID: kept.ID, Text: "five", IsCorrect: true},
			{Text: "fifty"},
		},
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	if updated.Text == nil || *updated.Text != "What is 10 divided by 2?" {
		t.Errorf("Update() text = %v", updated.Text)
	}
	if len(updated.Options) != 2 {
		t.Fatalf("Update() left %d options, want 2", len(updated.Options))
	}
	if updated.Options[0].ID != kept.ID {
		t.Errorf("kept option id = %d, want %d", updated.Options[0].ID, kept.ID)
	}
	if updated.Options[0].Text == nil || *updated.Options[0].Text != "five" {
		t.Errorf("kept option text = %v, want %q", updated.Options[0].Text, "five")
	}
	if !updated.Options[0].IsCorrect {
		t.Error("kept option should be the correct one")
	}

	if count := countRows(t, db, &models.Option{}); count != 2 {
		t.Errorf("option count = %d, want 2 (dropped options deleted)", count)
	}
}

func TestUpdateQuestionRejectedLeavesRowsUntouched(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	question, err := s.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 7-4?",
		Options:  fourOptions([4]string{"1", "2", "3", "4"}, 2),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	_, err = s.Update(question.ID, &QuestionInput{
		LessonID: lesson.ID,
		Text:     "Broken update",
		Options:  []OptionInput{{Text: "only one", IsCorrect: true}},
	})
	if !IsValidation(err) {
		t.Fatalf("Update(one option) error = %v, want ValidationError", err)
	}

	reloaded, err := s.ByID(question.ID)
	if err != nil {
		t.Fatalf("ByID() failed: %v", err)
	}
	if reloaded.Text == nil || *reloaded.Text != "What is 7-4?" {
		t.Errorf("question text changed on rejected update: %v", reloaded.Text)
	}
	if len(reloaded.Options) != 4 {
		t.Errorf("option count = %d after rejected update, want 4", len(reloaded.Options))
	}

	if _, err := s.Update(9999, &QuestionInput{LessonID: lesson.ID}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing id) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	question, err := s.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 6*7?",
		Options:  fourOptions([4]string{"42", "36", "48", "54"}, 0),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	deleted, err := s.Delete(question.ID)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if len(deleted.Options) != 4 {
		t.Errorf("Delete() returned %d options for cleanup, want 4", len(deleted.Options))
	}

	var questionRows, optionRows int64
	if err := db.Unscoped().Model(&models.Question{}).Count(&questionRows).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if err := db.Unscoped().Model(&models.Option{}).Count(&optionRows).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if questionRows != 0 || optionRows != 0 {
		t.Errorf("rows on disk after delete = %d questions, %d options, want 0/0", questionRows, optionRows)
	}

	if _, err := s.Delete(question.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(again) error = %v, want ErrNotFound", err)
	}

	// the text is free again for a fresh question in the same lesson
	if _, err := s.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "What is 6*7?",
		Options:  fourOptions([4]string{"42", "36", "48", "54"}, 0),
	}); err != nil {
		t.Errorf("Create(reused text after delete) failed: %v", err)
	}
}

func TestQuestionsByLesson(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lessonA := seedLesson(t, db, "Math", "Algebra", "Equations")
	lessonB := seedLesson(t, db, "Math B", "Algebra B", "Inequalities")

	for _, text := range []string{"q1", "q2"} {
		if _, err := s.Create(&QuestionInput{
			LessonID: lessonA.ID,
			Text:     text,
			Options:  fourOptions([4]string{"a", "b", "c", "d"}, 0),
		}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	if _, err := s.Create(&QuestionInput{
		LessonID: lessonB.ID,
		Text:     "other lesson",
		Options:  fourOptions([4]string{"a", "b", "c", "d"}, 3),
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	questions, err := s.ByLesson(lessonA.ID)
	if err != nil {
		t.Fatalf("ByLesson() failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("ByLesson() returned %d questions, want 2", len(questions))
	}

	for i, question := range questions {
		if question.LessonID != lessonA.ID {
			t.Errorf("question %d has lesson_id %d, want %d", i, question.LessonID, lessonA.ID)
		}
		if i > 0 && questions[i-1].ID > question.ID {
			t.Error("ByLesson() questions not ordered by ascending id")
		}
		for j := 1; j < len(question.Options); j++ {
			if question.Options[j-1].ID > question.Options[j].ID {
				t.Error("ByLesson() options not ordered by ascending id")
			}
		}
	}

	if _, err := s.ByLesson(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByLesson(missing) error = %v, want ErrNotFound", err)
	}
}

func TestQuestionsByUnitAndCourse(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")
	other := seedLesson(t, db, "Science", "Physics", "Motion")

	if _, err := s.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "in scope",
		Options:  fourOptions([4]string{"a", "b", "c", "d"}, 0),
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := s.Create(&QuestionInput{
		LessonID: other.ID,
		Text:     "out of scope",
		Options:  fourOptions([4]string{"a", "b", "c", "d"}, 0),
	}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	byUnit, err := s.ByUnit(lesson.UnitID)
	if err != nil {
		t.Fatalf("ByUnit() failed: %v", err)
	}
	if len(byUnit) != 1 || byUnit[0].LessonID != lesson.ID {
		t.Errorf("ByUnit() = %d questions, want only the in-scope one", len(byUnit))
	}

	var unit models.Unit
	if err := db.First(&unit, lesson.UnitID).Error; err != nil {
		t.Fatalf("loading unit failed: %v", err)
	}

	byCourse, err := s.ByCourse(unit.CourseID)
	if err != nil {
		t.Fatalf("ByCourse() failed: %v", err)
	}
	if len(byCourse) != 1 {
		t.Errorf("ByCourse() = %d questions, want 1", len(byCourse))
	}

	byBoth, err := s.ByCourseUnit(unit.CourseID, unit.ID)
	if err != nil {
		t.Fatalf("ByCourseUnit() failed: %v", err)
	}
	if len(byBoth) != 1 {
		t.Errorf("ByCourseUnit() = %d questions, want 1", len(byBoth))
	}

	// a unit that exists but under a different course is not found
	var foreignUnit models.Unit
	if err := db.First(&foreignUnit, other.UnitID).Error; err != nil {
		t.Fatalf("loading unit failed: %v", err)
	}
	if _, err := s.ByCourseUnit(unit.CourseID, foreignUnit.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByCourseUnit(mismatched course) error = %v, want ErrNotFound", err)
	}
}

func TestRecentAndRandomQuestions(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	for _, text := range []string{"first", "second", "third"} {
		if _, err := s.Create(&QuestionInput{
			LessonID: lesson.ID,
			Text:     text,
			Options:  fourOptions([4]string{"a", "b", "c", "d"}, 0),
		}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	recent, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d questions", len(recent))
	}
	if recent[0].ID < recent[1].ID {
		t.Error("Recent() not ordered newest first")
	}

	random, err := s.Random(2)
	if err != nil {
		t.Fatalf("Random() failed: %v", err)
	}
	if len(random) != 2 {
		t.Errorf("Random(2) returned %d questions", len(random))
	}

	all, err := s.All()
	if err != nil {
		t.Fatalf("All() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("All() returned %d questions, want 3", len(all))
	}
}

func TestListPagination(t *testing.T) {
	db := openTestDB(t)
	s := NewQuestionService(db)
	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	for _, text := range []string{"q1", "q2", "q3"} {
		if _, err := s.Create(&QuestionInput{
			LessonID: lesson.ID,
			Text:     text,
			Options:  fourOptions([4]string{"a", "b", "c", "d"}, 0),
		}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	page, total, err := s.List(1, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if total != 3 {
		t.Errorf("List() total = %d, want 3", total)
	}
	if len(page) != 2 {
		t.Fatalf("List(page 1, per 2) returned %d questions", len(page))
	}
	if page[0].Lesson.Unit.Course.Name != "Math" {
		t.Error("List() did not load the lesson/unit/course chain")
	}

	secondPage, _, err := s.List(2, 2)
	if err != nil {
		t.Fatalf("List(page 2) failed: %v", err)
	}
	if len(secondPage) != 1 {
		t.Errorf("List(page 2, per 2) returned %d questions, want 1", len(secondPage))
	}
}

// The full authoring flow: build the curriculum chain, author a question,
// and read it back the way a quiz client would.
func TestAuthoringFlowEndToEnd(t *testing.T) {
	db := openTestDB(t)
	questions := NewQuestionService(db)

	lesson := seedLesson(t, db, "Math", "Algebra", "Equations")

	created, err := questions.Create(&QuestionInput{
		LessonID: lesson.ID,
		Text:     "2+2=?",
		Options:  fourOptions([4]string{"3", "4", "5", "6"}, 1),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	var wantCorrectID uint
	for _, opt := range created.Options {
		if opt.Text != nil && *opt.Text == "4" {
			wantCorrectID = opt.ID
		}
	}
	if wantCorrectID == 0 {
		t.Fatal("option \"4\" not persisted")
	}

	fetched, err := questions.ByLesson(lesson.ID)
	if err != nil {
		t.Fatalf("ByLesson() failed: %v", err)
	}
	if len(fetched) != 1 {
		t.Fatalf("ByLesson() returned %d questions, want 1", len(fetched))
	}

	var gotCorrectID uint
	for _, opt := range fetched[0].Options {
		if opt.IsCorrect {
			gotCorrectID = opt.ID
		}
	}
	if gotCorrectID != wantCorrectID {
		t.Errorf("correct option id = %d, want %d (the option %q)", gotCorrectID, wantCorrectID, "4")
	}
}
