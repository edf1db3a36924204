package models

// Raindrop Raindrop.io 书签条目 (外部条目存储的数据模型)
type Raindrop struct {
	ID         int           `json:"_id"`
	Link       string        `json:"link"`
	Title      string        `json:"title"`
	Excerpt    string        `json:"excerpt"`
	Tags       []string      `json:"tags"`
	Collection *CollectionRef `json:"collection,omitempty"`
}

// CollectionRef 条目所属收藏夹引用
type CollectionRef struct {
	ID int `json:"$id"`
}

// CollectionID 返回所属收藏夹ID (无引用时返回0)
func (r *Raindrop) CollectionID() int {
	if r.Collection == nil {
		return 0
	}
	return r.Collection.ID
}

// RaindropListResponse 条目列表响应
type RaindropListResponse struct {
	Result bool        `json:"result"`
	Items  []*Raindrop `json:"items"`
	Count  int         `json:"count"`
}

// Collection Raindrop.io 收藏夹
type Collection struct {
	ID    int    `json:"_id"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

// CollectionListResponse 收藏夹列表响应
type CollectionListResponse struct {
	Result bool          `json:"result"`
	Items  []*Collection `json:"items"`
}
