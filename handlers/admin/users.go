package admin

import (
	"lingocert/database"
	"lingocert/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// GetUsers returns all users with pagination
func GetUsers(c *fiber.Ctx) error {
	db := database.GetDB()

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	search := c.Query("search", "")

	offset := (page - 1) * limit

	var users []models.User
	var total int64

	query := db.Model(&models.User{})

	if search != "" {
		query = query.Where("username LIKE ? OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	for i := range users {
		users[i].Password = ""
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetUser returns a single user with their achievement progress
func GetUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user models.User
	if err := db.Preload("Achievements.Achievement").First(&user, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	user.Password = ""
	return c.JSON(fiber.Map{"user": user})
}

// UpdateUser updates a user's profile and flags
func UpdateUser(c *fiber.Ctx) error {
	db := database.GetDB()

	var user models.User
	if err := db.First(&user, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		DisplayName *string `json:"display_name"`
		IsAdmin     *bool   `json:"is_admin"`
		IsBanned    *bool   `json:"is_banned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.IsAdmin != nil {
		updates["is_admin"] = *req.IsAdmin
	}
	if req.IsBanned != nil {
		updates["is_banned"] = *req.IsBanned
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update user"})
	}

	user.Password = ""
	return c.JSON(fiber.Map{"user": user})
}

// BanUser flags a user as banned
func BanUser(c *fiber.Ctx) error {
	db := database.GetDB()

	if err := db.Model(&models.User{}).Where("id = ?", c.Params("id")).
		Update("is_banned", true).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to ban user"})
	}

	return c.JSON(fiber.Map{"message": "User banned"})
}

// ResetUserPassword sets a new password for a user
func ResetUserPassword(c *fiber.Ctx) error {
	db := database.GetDB()

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || len(req.Password) < 6 {
		return c.Status(400).JSON(fiber.Map{"error": "Password must be at least 6 characters"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	if err := db.Model(&models.User{}).Where("id = ?", c.Params("id")).
		Update("password", string(hashed)).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to reset password"})
	}

	return c.JSON(fiber.Map{"message": "Password reset"})
}

// DeleteUser removes a user and all dependent rows
func DeleteUser(c *fiber.Ctx) error {
	db := database.GetDB()
	id := c.Params("id")

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	// Cascading cleanup: attempts, certificates, donations and achievement
	// progress go with the user.
	db.Where("user_id = ?", user.ID).Delete(&models.TestAttempt{})
	db.Where("user_id = ?", user.ID).Delete(&models.Certificate{})
	db.Where("user_id = ?", user.ID).Delete(&models.Donation{})
	db.Where("user_id = ?", user.ID).Delete(&models.UserAchievementProgress{})

	if err := db.Delete(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	return c.JSON(fiber.Map{"message": "User deleted"})
}
