package controllers

import (
	"net/http"

	"github.com/ArpaAP/soulbin/models"
	"github.com/ArpaAP/soulbin/services"
	"github.com/gin-gonic/gin"
)

type ChatController struct {
	chatService *services.ChatService
}

func NewChatController(chatService *services.ChatService) *ChatController {
	return &ChatController{
		chatService: chatService,
	}
}

func (cc *ChatController) CreateChat(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	chat, err := cc.chatService.Create(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "채팅 생성 실패")
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (cc *ChatController) ListChats(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	chats, err := cc.chatService.List(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err, "채팅 목록 조회 실패")
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (cc *ChatController) GetChat(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	chat, err := cc.chatService.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err, "채팅 조회 실패")
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (cc *ChatController) DeleteChat(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := cc.chatService.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		respondError(c, err, "채팅 삭제 실패")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "채팅이 삭제되었습니다"})
}

// SendMessage 사용자 메시지 저장 후 AI 응답까지 만들어 돌려준다
func (cc *ChatController) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := cc.chatService.SendMessage(c.Request.Context(), uid, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err, "메시지 전송 실패")
		return
	}

	c.JSON(http.StatusOK, resp)
}
