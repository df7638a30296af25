// Package handlers implements the handlers for the different routes of the server to handle the incoming HTTP requests.
package handlers

import (
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"whisperbox/internal/config"
	"whisperbox/internal/managers"
	"whisperbox/internal/schemas"
	"whisperbox/internal/utils"
)

// UserHdl defines the interface for handling account-related HTTP requests.
type UserHdl interface {
	SignUp(ctx *gin.Context)
	VerifyCode(ctx *gin.Context)
	CheckUsernameUnique(ctx *gin.Context)
	SignIn(ctx *gin.Context)
	RefreshToken(ctx *gin.Context)
	GetAcceptMessages(ctx *gin.Context)
	SetAcceptMessages(ctx *gin.Context)
}

// UserHandler provides methods to handle account-related HTTP requests.
type UserHandler struct {
	DatabaseManager managers.DatabaseMgr
	JWTManager      managers.JWTMgr
	MailManager     managers.MailMgr
	Validator       *utils.Validator
	verifyEmailMX   bool
}

var errTransaction = errors.New("error beginning transaction")

const codeValidity = time.Hour

// NewUserHandler returns a new UserHandler with the provided managers and validator.
func NewUserHandler(databaseManager *managers.DatabaseMgr, jwtManager *managers.JWTMgr, mailManager *managers.MailMgr, cfg *config.Config) UserHdl {
	return &UserHandler{
		DatabaseManager: *databaseManager,
		JWTManager:      *jwtManager,
		MailManager:     *mailManager,
		Validator:       utils.GetValidator(),
		verifyEmailMX:   cfg.VerifyEmailMX,
	}
}

// SignUp registers a new account and mails a verification code to its address.
// A username that is still unverified may be claimed again, the existing row is
// refreshed with the new credentials and a fresh code instead of rejecting it.
func (handler *UserHandler) SignUp(ctx *gin.Context) {
	// Begin a new transaction
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	// Fetch the sanitized payload from the context
	signUpRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.SignUpRequest)

	// Look for existing accounts holding the requested username or email.
	// Both can match different rows, so every conflict row is inspected.
	queryString := "SELECT user_id, username, email, verified_at FROM whisper_schema.users WHERE username = $1 OR email = $2"
	rows, err := tx.Query(ctx, queryString, signUpRequest.Username, signUpRequest.Email)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	type conflictRow struct {
		id       uuid.UUID
		username string
		email    string
		verified bool
	}

	var conflicts []conflictRow
	for rows.Next() {
		var conflict conflictRow
		var verifiedAt pgtype.Timestamptz

		if err = rows.Scan(&conflict.id, &conflict.username, &conflict.email, &verifiedAt); err != nil {
			rows.Close()
			utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
			return
		}

		conflict.verified = verifiedAt.Valid
		conflicts = append(conflicts, conflict)
	}
	if err = rows.Err(); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	for _, conflict := range conflicts {
		if conflict.verified && conflict.username == signUpRequest.Username {
			err = errors.New("username taken")
			utils.WriteAndLogError(ctx, schemas.UsernameTaken, http.StatusConflict, err)
			return
		}
	}
	for _, conflict := range conflicts {
		if conflict.verified {
			err = errors.New("email taken")
			utils.WriteAndLogError(ctx, schemas.EmailTaken, http.StatusConflict, err)
			return
		}
	}

	// Only unverified rows remain, pick the one holding the username first
	var reuse *conflictRow
	for i := range conflicts {
		if conflicts[i].username == signUpRequest.Username {
			reuse = &conflicts[i]
			break
		}
	}
	if reuse == nil && len(conflicts) > 0 {
		reuse = &conflicts[0]
	}

	// Check that the email domain can receive mail
	if handler.verifyEmailMX && !handler.Validator.VerifyEmail(signUpRequest.Email) {
		err = errors.New("email unreachable")
		utils.WriteAndLogError(ctx, schemas.EmailUnreachable, http.StatusBadRequest, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(signUpRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	code := generateCode()
	codeExpiresAt := time.Now().Add(codeValidity)

	if reuse != nil {
		// Refresh the unverified account instead of inserting a duplicate
		queryString = "UPDATE whisper_schema.users SET username = $1, email = $2, password = $3, verification_code = $4, code_expires_at = $5 WHERE user_id = $6"
		_, err = tx.Exec(ctx, queryString, signUpRequest.Username, signUpRequest.Email, hashedPassword, code,
			codeExpiresAt, reuse.id)
	} else {
		queryString = "INSERT INTO whisper_schema.users (user_id, username, email, password, verification_code, code_expires_at, accepting_messages, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
		_, err = tx.Exec(ctx, queryString, uuid.New(), signUpRequest.Username, signUpRequest.Email, hashedPassword,
			code, codeExpiresAt, true, time.Now())
	}
	if err != nil {
		// A concurrent registration may have claimed the username or email
		// between the conflict lookup and this write
		pgErr, ok := err.(*pgconn.PgError)
		if ok && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				utils.WriteAndLogError(ctx, schemas.EmailTaken, http.StatusConflict, err)
				return
			}

			utils.WriteAndLogError(ctx, schemas.UsernameTaken, http.StatusConflict, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Send the verification code to the user
	if err = handler.MailManager.SendVerificationMail(signUpRequest.Email, signUpRequest.Username, code); err != nil {
		utils.WriteAndLogError(ctx, schemas.EmailNotSent, http.StatusInternalServerError, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.ApiResponseDTO{
		Success: true,
		Message: "User registered successfully. Please verify your account.",
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusCreated)
}

// VerifyCode checks the emailed code for the given username and marks the account verified.
func (handler *UserHandler) VerifyCode(ctx *gin.Context) {
	// Begin a new transaction
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	// Fetch the sanitized payload from the context
	verifyCodeRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.VerifyCodeRequest)

	queryString := "SELECT user_id, verification_code, code_expires_at, verified_at FROM whisper_schema.users WHERE username = $1"
	row := tx.QueryRow(ctx, queryString, verifyCodeRequest.Username)

	var userId uuid.UUID
	var verificationCode pgtype.Text
	var codeExpiresAt, verifiedAt pgtype.Timestamptz

	if err = row.Scan(&userId, &verificationCode, &codeExpiresAt, &verifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if verifiedAt.Valid {
		err = errors.New("already verified")
		utils.WriteAndLogError(ctx, schemas.AlreadyVerified, http.StatusAlreadyReported, err)
		return
	}

	// A wrong code is reported before an expired one
	if !verificationCode.Valid || verificationCode.String != verifyCodeRequest.Code {
		err = errors.New("verification code does not match")
		utils.WriteAndLogError(ctx, schemas.CodeMismatch, http.StatusBadRequest, err)
		return
	}

	if !codeExpiresAt.Valid || time.Now().After(codeExpiresAt.Time) {
		err = errors.New("verification code expired")
		utils.WriteAndLogError(ctx, schemas.CodeExpired, http.StatusBadRequest, err)
		return
	}

	queryString = "UPDATE whisper_schema.users SET verified_at = $1, verification_code = NULL, code_expires_at = NULL WHERE user_id = $2"
	if _, err = tx.Exec(ctx, queryString, time.Now(), userId); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.ApiResponseDTO{
		Success: true,
		Message: "Account verified successfully",
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// CheckUsernameUnique reports whether the queried username is still free.
// Unverified accounts do not reserve a username since they can be re-registered.
func (handler *UserHandler) CheckUsernameUnique(ctx *gin.Context) {
	username := ctx.Query(utils.UsernameParamKey)

	if err := handler.Validator.Validate.Var(username, "required,min=3,max=20,username_validation"); err != nil {
		utils.WriteAndLogError(ctx, schemas.BadRequest, http.StatusBadRequest, err)
		return
	}

	queryString := "SELECT COUNT(*) FROM whisper_schema.users WHERE username = $1 AND verified_at IS NOT NULL"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, username)

	var count int
	if err := row.Scan(&count); err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if count > 0 {
		utils.WriteAndLogError(ctx, schemas.UsernameTaken, http.StatusConflict, errors.New("username taken"))
		return
	}

	response := &schemas.ApiResponseDTO{
		Success: true,
		Message: "Username is available",
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// SignIn authenticates a verified account by username or email and returns a token pair.
func (handler *UserHandler) SignIn(ctx *gin.Context) {
	// Begin a new transaction
	tx := utils.BeginTransaction(ctx, handler.DatabaseManager.GetPool())
	if tx == nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, errTransaction)
		return
	}
	var err error
	defer func() { utils.RollbackTransaction(ctx, tx, err) }()

	// Fetch the sanitized payload from the context
	signInRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.SignInRequest)

	queryString := "SELECT user_id, username, password, verified_at, accepting_messages FROM whisper_schema.users WHERE username = $1 OR email = $1"
	row := tx.QueryRow(ctx, queryString, signInRequest.Identifier)

	var userId uuid.UUID
	var username, hashedPassword string
	var verifiedAt pgtype.Timestamptz
	var acceptingMessages bool

	if err = row.Scan(&userId, &username, &hashedPassword, &verifiedAt, &acceptingMessages); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if !verifiedAt.Valid {
		err = errors.New("account not verified")
		utils.WriteAndLogError(ctx, schemas.UserNotVerified, http.StatusForbidden, err)
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(signInRequest.Password)); err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidCredentials, http.StatusForbidden, err)
		return
	}

	tokenPair, err := generateTokenPair(handler, userId.String(), username)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	// Commit the transaction
	if err = utils.CommitTransaction(ctx, tx); err != nil {
		return
	}

	response := &schemas.SignInDTO{
		Success:             true,
		Message:             "Signed in successfully",
		UserId:              userId.String(),
		Username:            username,
		IsAcceptingMessages: acceptingMessages,
		Token:               tokenPair.Token,
		RefreshToken:        tokenPair.RefreshToken,
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (handler *UserHandler) RefreshToken(ctx *gin.Context) {
	// Fetch the sanitized payload from the context
	refreshTokenRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.RefreshTokenRequest)

	claims, err := handler.JWTManager.ValidateJWT(refreshTokenRequest.RefreshToken)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InvalidToken, http.StatusUnauthorized, err)
		return
	}

	mapClaims := claims.(jwt.MapClaims)
	if mapClaims["refresh"] != "true" {
		utils.WriteAndLogError(ctx, schemas.Unauthorized, http.StatusUnauthorized, errors.New("token is not a refresh token"))
		return
	}

	userId := mapClaims["sub"].(string)
	username := mapClaims["username"].(string)

	tokenPair, err := generateTokenPair(handler, userId, username)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.InternalServerError, http.StatusInternalServerError, err)
		return
	}

	utils.WriteAndLogResponse(ctx, tokenPair, http.StatusOK)
}

// GetAcceptMessages returns the acceptance flag of the authenticated account.
func (handler *UserHandler) GetAcceptMessages(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	queryString := "SELECT accepting_messages FROM whisper_schema.users WHERE user_id = $1"
	row := handler.DatabaseManager.GetPool().QueryRow(ctx, queryString, userId)

	var acceptingMessages bool
	if err := row.Scan(&acceptingMessages); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, err)
			return
		}

		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	response := &schemas.AcceptMessagesDTO{
		Success:             true,
		IsAcceptingMessages: acceptingMessages,
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

// SetAcceptMessages updates the acceptance flag of the authenticated account.
// Concurrent toggles resolve to the last write.
func (handler *UserHandler) SetAcceptMessages(ctx *gin.Context) {
	claims := ctx.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
	userId := claims["sub"].(string)

	// Fetch the sanitized payload from the context
	acceptMessagesRequest := ctx.Value(utils.SanitizedPayloadKey.String()).(*schemas.AcceptMessagesRequest)

	queryString := "UPDATE whisper_schema.users SET accepting_messages = $1 WHERE user_id = $2"
	commandTag, err := handler.DatabaseManager.GetPool().Exec(ctx, queryString, *acceptMessagesRequest.AcceptMessages, userId)
	if err != nil {
		utils.WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return
	}

	if commandTag.RowsAffected() == 0 {
		utils.WriteAndLogError(ctx, schemas.UserNotFound, http.StatusNotFound, errors.New("user not found"))
		return
	}

	response := &schemas.AcceptMessagesDTO{
		Success:             true,
		Message:             "Message acceptance updated",
		IsAcceptingMessages: *acceptMessagesRequest.AcceptMessages,
	}
	utils.WriteAndLogResponse(ctx, response, http.StatusOK)
}

func generateTokenPair(handler *UserHandler, userId, username string) (*schemas.TokenPairDTO, error) {
	token, err := handler.JWTManager.GenerateJWT(userId, username, false)
	if err != nil {
		return nil, err
	}

	refreshToken, err := handler.JWTManager.GenerateJWT(userId, username, true)
	if err != nil {
		return nil, err
	}

	return &schemas.TokenPairDTO{Token: token, RefreshToken: refreshToken}, nil
}

func generateCode() string {
	return strconv.Itoa(rand.Intn(900000) + 100000)
}
