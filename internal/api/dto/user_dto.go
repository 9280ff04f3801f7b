package dto

type UserCreateRequest struct {
	Username   string  `json:"username" form:"username" binding:"required,min=1,max=255"`
	Avatar     *string `json:"avatar" form:"avatar" binding:"omitempty,url,max=500"`
	AvatarType string  `json:"avatarType" form:"avatarType" binding:"omitempty,oneof=square circle"`
	Role       string  `json:"role" form:"role" binding:"omitempty,oneof=user moderator"`
}

type UserListQuery struct {
	ID string `form:"id"`
}

type UserInfo struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Avatar     *string `json:"avatar"`
	AvatarType string  `json:"avatarType"`
	Role       string  `json:"role"`
}
