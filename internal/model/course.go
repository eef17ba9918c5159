package model

// Track 课程目录协作方的只读投影：一个学习方向下的课程集合。
type Track struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsPublished bool   `json:"isPublished"`
}

func (Track) TableName() string {
	return "tracks"
}

// Course 课程目录协作方的只读投影，本服务只消费 course -> track 的归属关系。
type Course struct {
	BaseModel
	TrackID     uint   `gorm:"index;type:bigint unsigned" json:"trackId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsPublished bool   `json:"isPublished"`
}

func (Course) TableName() string {
	return "courses"
}
