package models

import "time"

// Saying is the core content entity: a pair of contrasting statements about
// "two kinds of" some subject.
type Saying struct {
	ID         int64     `json:"id"`
	IntroID    int64     `json:"intro_id"`
	TypeID     int64     `json:"type_id"`
	FirstKind  string    `json:"first_kind"`
	SecondKind string    `json:"second_kind"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SayingView is a saying joined with its lookup rows and like state,
// as served on the feed and detail endpoints.
type SayingView struct {
	Saying
	IntroText string `json:"intro_text"`
	TypeName  string `json:"type_name"`
	LikeCount int    `json:"like_count"`
	LikedByMe bool   `json:"liked_by_me"`
}

// Intro is a templated introduction phrase ("There are two kinds of people
// in this world...").
type Intro struct {
	ID        int64     `json:"id"`
	IntroText string    `json:"intro_text"`
	CreatedAt time.Time `json:"created_at"`
}

// SayingType is a user-created category for sayings. Names are free-form:
// two users proposing the same name concurrently may both succeed, so there
// is deliberately no uniqueness constraint on Name.
type SayingType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
