package dto

const (
	SearchSourceElasticsearch = "elasticsearch"
	SearchSourceDatabase      = "database"
)

type SearchCommentQuery struct {
	Q        string `form:"q" binding:"required,min=1,max=200"`
	ThreadID string `form:"threadId" binding:"max=255"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type SearchCommentData struct {
	Comments []CommentInfo `json:"comments"`
	Total    int           `json:"total"`
	Source   string        `json:"source"`
}
