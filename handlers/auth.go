package handlers

import (
	"html/template"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"dailyreport/config"
	"dailyreport/database"
	"dailyreport/middleware"
	"dailyreport/models"
)

type AuthHandler struct {
	config    *config.Config
	templates map[string]*template.Template
}

func NewAuthHandler(cfg *config.Config, templates map[string]*template.Template) *AuthHandler {
	return &AuthHandler{
		config:    cfg,
		templates: templates,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Error": r.URL.Query().Get("error"),
	}
	h.templates["login"].ExecuteTemplate(w, "base", data)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	var user models.User
	if err := database.GetDB().Where("username = ?", username).First(&user).Error; err != nil {
		http.Redirect(w, r, "/login?error=Invalid+credentials", http.StatusSeeOther)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		http.Redirect(w, r, "/login?error=Invalid+credentials", http.StatusSeeOther)
		return
	}

	token, err := middleware.GenerateToken(&user, h.config.JWTExpiration)
	if err != nil {
		http.Redirect(w, r, "/login?error=Failed+to+generate+token", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.JWTExpiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	if user.MustChangePassword {
		http.Redirect(w, r, "/change-password", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) ChangePasswordPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	data := map[string]interface{}{
		"User":  user,
		"Error": r.URL.Query().Get("error"),
	}
	h.templates["change-password"].ExecuteTemplate(w, "base", data)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/change-password?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirmPassword := r.FormValue("confirm_password")

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		http.Redirect(w, r, "/change-password?error=Current+password+is+incorrect", http.StatusSeeOther)
		return
	}

	if newPassword != confirmPassword {
		http.Redirect(w, r, "/change-password?error=Passwords+do+not+match", http.StatusSeeOther)
		return
	}

	if len(newPassword) < 5 {
		http.Redirect(w, r, "/change-password?error=Password+must+be+at+least+5+characters", http.StatusSeeOther)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Redirect(w, r, "/change-password?error=Failed+to+hash+password", http.StatusSeeOther)
		return
	}

	user.PasswordHash = string(hashedPassword)
	user.MustChangePassword = false
	if err := database.GetDB().Save(user).Error; err != nil {
		http.Redirect(w, r, "/change-password?error=Failed+to+update+password", http.StatusSeeOther)
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.JWTExpiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) UsersPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var users []models.User
	database.GetDB().Preload("Groups").Preload("Profile").Order("username asc").Find(&users)

	data := map[string]interface{}{
		"User":    user,
		"Users":   users,
		"Error":   r.URL.Query().Get("error"),
		"Success": r.URL.Query().Get("success"),
	}
	h.templates["users"].ExecuteTemplate(w, "base", data)
}

func (h *AuthHandler) EditUserPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 32)
	if err != nil {
		http.Redirect(w, r, "/users?error=Invalid+user+ID", http.StatusSeeOther)
		return
	}

	var target models.User
	if err := database.GetDB().Preload("Groups").Preload("Profile").First(&target, id).Error; err != nil {
		http.Redirect(w, r, "/users?error=User+not+found", http.StatusSeeOther)
		return
	}

	var groups []models.Group
	database.GetDB().Order("name asc").Find(&groups)

	data := map[string]interface{}{
		"User":   user,
		"Target": &target,
		"Groups": groups,
		"Error":  r.URL.Query().Get("error"),
	}
	h.templates["user-edit"].ExecuteTemplate(w, "base", data)
}

// UpdateUser changes role, email addresses and group membership. Password
// resets go through the change-password flow, not here.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/users?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseUint(r.FormValue("id"), 10, 32)
	if err != nil {
		http.Redirect(w, r, "/users?error=Invalid+user+ID", http.StatusSeeOther)
		return
	}

	db := database.GetDB()
	var target models.User
	if err := db.Preload("Profile").First(&target, id).Error; err != nil {
		http.Redirect(w, r, "/users?error=User+not+found", http.StatusSeeOther)
		return
	}

	role := models.Role(r.FormValue("role"))
	switch role {
	case models.RoleAdmin, models.RoleLeader, models.RoleMember:
		target.Role = role
	default:
		http.Redirect(w, r, "/users?error=Invalid+role", http.StatusSeeOther)
		return
	}
	target.FullName = r.FormValue("full_name")
	target.Email = r.FormValue("email")

	if err := db.Save(&target).Error; err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+update+user", http.StatusSeeOther)
		return
	}

	// Group membership from the multi-select.
	var groups []models.Group
	if ids := r.Form["group_ids"]; len(ids) > 0 {
		db.Where("id IN ?", ids).Find(&groups)
	}
	if err := db.Model(&target).Association("Groups").Replace(groups); err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+update+groups", http.StatusSeeOther)
		return
	}

	// Secondary notification address lives on the profile row.
	profile := target.Profile
	if profile == nil {
		profile = &models.UserProfile{UserID: target.ID}
	}
	profile.NotificationEmail = r.FormValue("notification_email")
	if err := db.Save(profile).Error; err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+update+profile", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/users?success=User+updated", http.StatusSeeOther)
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/users?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	username := r.FormValue("username")
	if len(username) < 3 {
		http.Redirect(w, r, "/users?error=Username+must+be+at+least+3+characters", http.StatusSeeOther)
		return
	}

	db := database.GetDB()
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		http.Redirect(w, r, "/users?error=Username+already+exists", http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	if len(password) < 5 {
		http.Redirect(w, r, "/users?error=Password+must+be+at+least+5+characters", http.StatusSeeOther)
		return
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+create+user", http.StatusSeeOther)
		return
	}

	user := models.User{
		Username:           username,
		FullName:           r.FormValue("full_name"),
		Email:              r.FormValue("email"),
		PasswordHash:       string(hashedPassword),
		Role:               models.RoleMember,
		MustChangePassword: true,
	}
	if err := db.Create(&user).Error; err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+create+user", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/users?success=User+created", http.StatusSeeOther)
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/users?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseUint(r.FormValue("id"), 10, 32)
	if err != nil {
		http.Redirect(w, r, "/users?error=Invalid+user+ID", http.StatusSeeOther)
		return
	}

	if actor != nil && actor.ID == uint(id) {
		http.Redirect(w, r, "/users?error=You+cannot+delete+your+own+account", http.StatusSeeOther)
		return
	}

	if err := database.GetDB().Delete(&models.User{}, id).Error; err != nil {
		http.Redirect(w, r, "/users?error=Failed+to+delete+user", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/users?success=User+deleted", http.StatusSeeOther)
}

func (h *AuthHandler) GroupsPage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())

	var groups []models.Group
	database.GetDB().Preload("Users").Order("name asc").Find(&groups)

	data := map[string]interface{}{
		"User":    user,
		"Groups":  groups,
		"Error":   r.URL.Query().Get("error"),
		"Success": r.URL.Query().Get("success"),
	}
	h.templates["groups"].ExecuteTemplate(w, "base", data)
}

func (h *AuthHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/groups?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		http.Redirect(w, r, "/groups?error=Group+name+is+required", http.StatusSeeOther)
		return
	}

	if err := database.GetDB().Create(&models.Group{Name: name}).Error; err != nil {
		http.Redirect(w, r, "/groups?error=Failed+to+create+group", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/groups?success=Group+created", http.StatusSeeOther)
}

func (h *AuthHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/groups?error=Invalid+form+data", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseUint(r.FormValue("id"), 10, 32)
	if err != nil {
		http.Redirect(w, r, "/groups?error=Invalid+group+ID", http.StatusSeeOther)
		return
	}

	db := database.GetDB()
	var group models.Group
	if err := db.First(&group, id).Error; err != nil {
		http.Redirect(w, r, "/groups?error=Group+not+found", http.StatusSeeOther)
		return
	}

	if err := db.Model(&group).Association("Users").Clear(); err != nil {
		http.Redirect(w, r, "/groups?error=Failed+to+delete+group", http.StatusSeeOther)
		return
	}
	if err := db.Delete(&group).Error; err != nil {
		http.Redirect(w, r, "/groups?error=Failed+to+delete+group", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/groups?success=Group+deleted", http.StatusSeeOther)
}
