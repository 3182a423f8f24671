package entities

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username  string `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"size:25;not null;default:user" json:"role"`

	Recipes   []*Recipe   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Favorites []*Favorite `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Carts     []*Cart     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Timestamp
}

// Follow is a directed subscription: UserID follows FollowingID.
type Follow struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_follow_pair" json:"user_id"`
	FollowingID uint `gorm:"not null;uniqueIndex:idx_follow_pair;index;check:chk_follow_not_self,user_id <> following_id" json:"following_id"`

	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
	Timestamp
}
