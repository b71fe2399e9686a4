package model

// swagger:model Course
type Course struct {
	BaseModel

	CreatorID   uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	// Final exam; nil ExamPassingScore means the course has no exam.
	ExamPassingScore *int `json:"examPassingScore,omitempty"`

	Lessons       []Lesson   `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
	ExamQuestions []Question `gorm:"foreignKey:CourseID" json:"examQuestions,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// Lesson order is unique within a course.
// swagger:model Lesson
type Lesson struct {
	BaseModel

	CourseID uint   `gorm:"index;type:bigint unsigned;uniqueIndex:idx_lesson_order,priority:1" json:"courseId"`
	Order    int    `gorm:"not null;uniqueIndex:idx_lesson_order,priority:2" json:"order"`
	Title    string `gorm:"size:255;not null" json:"title"`

	Slides []Slide `gorm:"foreignKey:LessonID" json:"slides,omitempty"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// Slide order is unique within a lesson. A slide optionally carries a gating
// micro-quiz: HasQuiz with its questions, passing score and required flag.
// swagger:model Slide
type Slide struct {
	BaseModel

	LessonID uint   `gorm:"index;type:bigint unsigned;uniqueIndex:idx_slide_order,priority:1" json:"lessonId"`
	Order    int    `gorm:"not null;uniqueIndex:idx_slide_order,priority:2" json:"order"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`

	HasQuiz          bool `gorm:"default:false" json:"hasQuiz"`
	QuizPassingScore int  `gorm:"default:0" json:"quizPassingScore"`
	QuizRequired     bool `gorm:"default:true" json:"quizRequired"`

	QuizQuestions []Question `gorm:"foreignKey:SlideID" json:"quizQuestions,omitempty"`
}

func (Slide) TableName() string {
	return "slides"
}
