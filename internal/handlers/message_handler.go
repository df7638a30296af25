package handlers

import (
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"whisperbox/internal/managers"
	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

// MessageHdl defines the interface for handling message-related HTTP requests.
type MessageHdl interface {
	SendMessage(ctx *gin.Context)
	GetMessages(ctx *gin.Context)
	DeleteMessage(ctx *gin.Context)
}

// MessageHandler provides methods to handle message-related HTTP requests.
type MessageHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
}

const (
	minContentLength = 10
	maxContentLength = 300
)

// NewMessageHandler returns a new MessageHandler with the provided managers.
func NewMessageHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr) MessageHdl {
	return &MessageHandler{
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
	}
}

// SendMessage stores an anonymous message for the targeted profile. The content
// length is checked before touching the database so that an out-of-bounds
// message is reported distinctly from other validation failures.
func (handler *MessageHandler) SendMessage(ctx *gin.Context) {
	// Fetch the sanitized payload from the context
	sendMessageRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.SendMessageRequest)

	// Content bounds are counted in characters, not bytes
	contentLength := utf8.RuneCountInString(sendMessageRequest.Content)
	if contentLength < minContentLength || contentLength > maxContentLength {
		utils.WriteAndLogError(ctx, schemas.InvalidContent, http.StatusBadRequest,
			errors.New("message content out of bounds"))
		return
	}

	// Begin a new transaction
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	// Resolve the targeted profile and its acceptance flag
	queryString := "SELECT user_id, accepting_messages FROM whisper_schema.users WHERE username = $1 AND verified_at IS NOT NULL"
	row := tx.QueryRow(ctx, queryString, sendMessageRequest.Username)

	var ownerId uuid.UUID
	var acceptingMessages bool

	if err = row.Scan(&ownerId, &acceptingMessages); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !acceptingMessages {
		err = errors.New("user is not accepting messages")
		utils.WriteAndLogError(ctx, schemas.NotAcceptingMessages, http.StatusForbidden, err)
		return
	}

	messageId := uuid.New()
	queryString = "INSERT INTO whisper_schema.messages (message_id, owner_id, content, created_at) VALUES ($1, $2, $3, $4)"
	if _, err = tx.Exec(ctx, queryString, messageId, ownerId, sendMessageRequest.Content, time.Now()); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.MessageSentDTO{
		Success:   true,
		Message:   "Message sent successfully",
		MessageId: messageId.String(),
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusCreated)
}

// GetMessages lists the authenticated account's inbox, newest first, paginated
// by offset and limit query parameters.
func (handler *MessageHandler) GetMessages(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	offset, limit := utils.ParsePaginationParams(ctx)
	pool := handler.DatabaseManager.GetPool()

	countQueryString := "SELECT COUNT(*) FROM whisper_schema.messages WHERE owner_id = $1"
	row := pool.QueryRow(ctx, countQueryString, userId)

	var totalRecords int
	if err := row.Scan(&totalRecords); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	dataQueryString := "SELECT message_id, content, created_at FROM whisper_schema.messages WHERE owner_id = $1 " +
		"ORDER BY created_at DESC LIMIT $2 OFFSET $3"
	rows, err := pool.Query(ctx, dataQueryString, userId, limit, offset)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}
	defer rows.Close()

	messages := make([]schemas.MessageDTO, 0)
	for rows.Next() {
		var messageId uuid.UUID
		var content string
		var createdAt pgtype.Timestamptz

		if err = rows.Scan(&messageId, &content, &createdAt); err != nil {
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		messages = append(messages, schemas.MessageDTO{
			MessageId: messageId.String(),
			Content:   content,
			CreatedAt: createdAt.Time.Format(time.RFC3339),
		})
	}

	if err = rows.Err(); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	response := &schemas.MessageListDTO{
		Success:    true,
		Messages:   messages,
		Pagination: utils.BuildPagination(offset, limit, totalRecords),
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// DeleteMessage removes a message from the authenticated account's inbox.
// Only the inbox owner may delete it. Deleting the same message twice reports
// not found on the second attempt.
func (handler *MessageHandler) DeleteMessage(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	messageId, parseErr := uuid.Parse(ctx.Param(utils.MessageIdParamKey))
	if parseErr != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, parseErr)
		return
	}

	// Begin a new transaction
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	// Check if the user owns the message
	queryString := "SELECT owner_id FROM whisper_schema.messages WHERE message_id = $1"
	row := tx.QueryRow(ctx, queryString, messageId)

	var ownerId uuid.UUID
	if err = row.Scan(&ownerId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.MessageNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if ownerId.String() != userId {
		err = errors.New("user does not own the message")
		utils.WriteAndLogError(ctx, schemas.DeleteMessageForbidden, http.StatusForbidden, err)
		return
	}

	// Delete the message
	queryString = "DELETE FROM whisper_schema.messages WHERE message_id = $1 AND owner_id = $2"
	commandTag, err := tx.Exec(ctx, queryString, messageId, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if commandTag.RowsAffected() == 0 {
		err = errors.New("message already deleted")
		utils.WriteAndLogError(ctx, schemas.MessageNotFound, http.StatusNotFound, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.ApiResponseDTO{
		Success: true,
		Message: "Message deleted successfully",
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}
