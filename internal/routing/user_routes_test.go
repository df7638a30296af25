package routing

import (
	"net/http"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

type signUpPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestSignUp(t *testing.T) {
	validPayload := signUpPayload{
		Username: "testUser",
		Email:    "test@example.com",
		Password: "test.Password123",
	}

	t.Run("ValidRegistration", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}))
		poolMock.ExpectExec("INSERT INTO whisper_schema.users").
			WithArgs(pgxmock.AnyArg(), validPayload.Username, validPayload.Email, pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), true, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusCreated)
		response.JSON().Object().HasValue("success", true)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnverifiedUsernameIsReRegistered", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		existingId := uuid.New().String()

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}).
				AddRow(existingId, validPayload.Username, "old@example.com", nil))
		poolMock.ExpectExec("UPDATE whisper_schema.users").
			WithArgs(validPayload.Username, validPayload.Email, pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusCreated)
		response.JSON().Object().HasValue("success", true)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("DuplicateVerifiedUsername", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}).
				AddRow(uuid.New().String(), validPayload.Username, "other@example.com", time.Now()))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusConflict)
		response.JSON().Object().HasValue("code", "ERR-002")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("DuplicateVerifiedEmail", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}).
				AddRow(uuid.New().String(), "someoneElse", validPayload.Email, time.Now()))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusConflict)
		response.JSON().Object().HasValue("code", "ERR-003")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnverifiedUsernameButVerifiedEmail", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		// The username sits on an unverified row while the email belongs to a
		// different verified account. The verified email conflict must win.
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}).
				AddRow(uuid.New().String(), validPayload.Username, "stale@example.com", nil).
				AddRow(uuid.New().String(), "someoneElse", validPayload.Email, time.Now()))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusConflict)
		response.JSON().Object().HasValue("code", "ERR-003")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("RacingRegistrationReportsConflict", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		// A concurrent sign-up claims the email between the lookup and the insert
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, email, verified_at").
			WithArgs(validPayload.Username, validPayload.Email).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "email", "verified_at"}))
		poolMock.ExpectExec("INSERT INTO whisper_schema.users").
			WithArgs(pgxmock.AnyArg(), validPayload.Username, validPayload.Email, pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), true, pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(validPayload).Expect().Status(http.StatusConflict)
		response.JSON().Object().HasValue("code", "ERR-003")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		payload := validPayload
		payload.Email = "test@example@.com"

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(payload).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-001")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("WeakPassword", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		payload := validPayload
		payload.Password = "password"

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-up").WithJSON(payload).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-001")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestVerifyCode(t *testing.T) {
	username := "testUser"
	userId := uuid.New().String()

	payload := func(code string) map[string]string {
		return map[string]string{"username": username, "code": code}
	}

	t.Run("ValidCode", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}).
				AddRow(userId, "123456", time.Now().Add(time.Hour), nil))
		poolMock.ExpectExec("UPDATE whisper_schema.users").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusOK)
		response.JSON().Object().HasValue("success", true)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("CodeMismatch", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}).
				AddRow(userId, "654321", time.Now().Add(time.Hour), nil))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-005")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("MismatchReportedBeforeExpiry", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		// Both wrong and expired, the mismatch wins
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}).
				AddRow(userId, "654321", time.Now().Add(-time.Hour), nil))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-005")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("CodeExpired", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}).
				AddRow(userId, "123456", time.Now().Add(-time.Minute), nil))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-006")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("AlreadyVerified", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}).
				AddRow(userId, nil, nil, time.Now()))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusAlreadyReported)
		response.JSON().Object().HasValue("code", "ERR-007")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UserNotFound", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, verification_code, code_expires_at, verified_at").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "verification_code", "code_expires_at", "verified_at"}))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/verify-code").WithJSON(payload("123456")).Expect().Status(http.StatusNotFound)
		response.JSON().Object().HasValue("code", "ERR-004")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestCheckUsernameUnique(t *testing.T) {
	t.Run("Available", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectQuery("SELECT COUNT").
			WithArgs("freshUser").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/check-username-unique").WithQuery("username", "freshUser").
			Expect().Status(http.StatusOK)
		response.JSON().Object().HasValue("success", true)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("Taken", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectQuery("SELECT COUNT").
			WithArgs("takenUser").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/check-username-unique").WithQuery("username", "takenUser").
			Expect().Status(http.StatusConflict)
		response.JSON().Object().HasValue("code", "ERR-002")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("InvalidUsername", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/check-username-unique").WithQuery("username", "a!").
			Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-001")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestSignIn(t *testing.T) {
	username := "testUser"
	password := "test.Password123"
	userId := uuid.New().String()

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	payload := map[string]string{"identifier": username, "password": password}

	t.Run("ValidSignIn", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, password, verified_at, accepting_messages").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "password", "verified_at", "accepting_messages"}).
				AddRow(userId, username, string(hash), time.Now(), true))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-in").WithJSON(payload).Expect().Status(http.StatusOK)

		body := response.JSON().Object()
		body.HasValue("success", true)
		body.HasValue("userId", userId)
		body.HasValue("username", username)
		body.HasValue("isAcceptingMessages", true)
		body.Value("token").String().NotEmpty()
		body.Value("refreshToken").String().NotEmpty()

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("NotVerified", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, password, verified_at, accepting_messages").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "password", "verified_at", "accepting_messages"}).
				AddRow(userId, username, string(hash), nil, true))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-in").WithJSON(payload).Expect().Status(http.StatusForbidden)
		response.JSON().Object().HasValue("code", "ERR-008")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		wrongHash, _ := bcrypt.GenerateFromPassword([]byte("other.Password123"), bcrypt.DefaultCost)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, password, verified_at, accepting_messages").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "password", "verified_at", "accepting_messages"}).
				AddRow(userId, username, string(wrongHash), time.Now(), true))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-in").WithJSON(payload).Expect().Status(http.StatusForbidden)
		response.JSON().Object().HasValue("code", "ERR-009")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UserNotFound", func(t *testing.T) {
		server, poolMock, _, _ := setupServer(t)

		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, username, password, verified_at, accepting_messages").
			WithArgs(username).
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "username", "password", "verified_at", "accepting_messages"}))
		poolMock.ExpectRollback()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/sign-in").WithJSON(payload).Expect().Status(http.StatusNotFound)
		response.JSON().Object().HasValue("code", "ERR-004")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestRefreshToken(t *testing.T) {
	userId := uuid.New().String()
	username := "testUser"

	t.Run("ValidRefreshToken", func(t *testing.T) {
		server, _, jwtMgr, _ := setupServer(t)

		refreshToken, _ := jwtMgr.GenerateJWT(userId, username, true)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/refresh-token").WithJSON(map[string]string{"refreshToken": refreshToken}).
			Expect().Status(http.StatusOK)

		body := response.JSON().Object()
		body.Value("token").String().NotEmpty()
		body.Value("refreshToken").String().NotEmpty()
	})

	t.Run("AccessTokenRejected", func(t *testing.T) {
		server, _, jwtMgr, _ := setupServer(t)

		accessToken, _ := jwtMgr.GenerateJWT(userId, username, false)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/refresh-token").WithJSON(map[string]string{"refreshToken": accessToken}).
			Expect().Status(http.StatusUnauthorized)
		response.JSON().Object().HasValue("code", "ERR-014")
	})

	t.Run("GarbageToken", func(t *testing.T) {
		server, _, _, _ := setupServer(t)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/refresh-token").WithJSON(map[string]string{"refreshToken": "NonsenseToken"}).
			Expect().Status(http.StatusUnauthorized)
		response.JSON().Object().HasValue("code", "ERR-019")
	})
}

func TestAcceptMessages(t *testing.T) {
	userId := uuid.New().String()
	username := "testUser"

	t.Run("GetFlag", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := setupServer(t)

		jwtToken, _ := jwtMgr.GenerateJWT(userId, username, false)

		poolMock.ExpectQuery("SELECT accepting_messages").
			WithArgs(userId).
			WillReturnRows(pgxmock.NewRows([]string{"accepting_messages"}).AddRow(true))

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/accept-messages").WithHeader("Authorization", "Bearer "+jwtToken).
			Expect().Status(http.StatusOK)
		response.JSON().Object().HasValue("isAcceptingMessages", true)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("SetFlagToFalse", func(t *testing.T) {
		server, poolMock, jwtMgr, _ := setupServer(t)

		jwtToken, _ := jwtMgr.GenerateJWT(userId, username, false)

		poolMock.ExpectExec("UPDATE whisper_schema.users").
			WithArgs(false, userId).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/accept-messages").WithHeader("Authorization", "Bearer "+jwtToken).
			WithJSON(map[string]bool{"acceptMessages": false}).
			Expect().Status(http.StatusOK)
		response.JSON().Object().HasValue("isAcceptingMessages", false)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("MissingFlagIsBadRequest", func(t *testing.T) {
		server, _, jwtMgr, _ := setupServer(t)

		jwtToken, _ := jwtMgr.GenerateJWT(userId, username, false)

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/accept-messages").WithHeader("Authorization", "Bearer "+jwtToken).
			WithJSON(map[string]string{}).
			Expect().Status(http.StatusBadRequest)
		response.JSON().Object().HasValue("code", "ERR-001")
	})

	t.Run("Unauthorized", func(t *testing.T) {
		server, _, _, _ := setupServer(t)

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/accept-messages").WithHeader("Authorization", "Bearer "+"NonsenseToken").
			Expect().Status(http.StatusUnauthorized)
		response.JSON().Object().HasValue("code", "ERR-014")
	})

	t.Run("RefreshTokenRejected", func(t *testing.T) {
		server, _, jwtMgr, _ := setupServer(t)

		refreshToken, _ := jwtMgr.GenerateJWT(userId, username, true)

		expect := httpexpect.Default(t, server.URL)
		response := expect.GET("/api/accept-messages").WithHeader("Authorization", "Bearer "+refreshToken).
			Expect().Status(http.StatusUnauthorized)
		response.JSON().Object().HasValue("code", "ERR-014")
	})
}
