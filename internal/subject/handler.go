package subject

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubjectResponse 定义了科目描述API的响应结构
type SubjectResponse struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Boolean bool    `json:"boolean"`
	Weight  float64 `json:"weight"`
}

// GetSubjects 返回固定科目集合及其权重，供前端渲染录入表单
func GetSubjects(c *gin.Context) {
	responses := make([]SubjectResponse, 0, len(Definitions))
	for _, def := range Definitions {
		responses = append(responses, SubjectResponse{
			Key:     def.Key,
			Label:   def.Label,
			Boolean: def.Boolean,
			Weight:  GetWeight(def.Key),
		})
	}
	c.JSON(http.StatusOK, responses)
}
