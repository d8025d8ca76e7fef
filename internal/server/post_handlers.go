package server

import (
	"io"
	"strings"

	"factoryfeed/internal/featureflags"
	"factoryfeed/internal/models"
	"factoryfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/posts?filter=all|users|factory|emergency
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.GetFeed(c.UserContext(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: s.optionalUserID(c),
		Filter:        c.Query("filter", service.FeedFilterAll),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, s.optionalUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts. JSON bodies carry text only; multipart
// forms may add an "image" file next to the "content" field.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	uid := userID(c)
	in := service.CreatePostInput{UserID: uid}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		in.Content = c.FormValue("content")
		if fh, err := c.FormFile("image"); err == nil {
			if !s.featureFlags.Enabled(featureflags.ImageUploads, uid) {
				return models.Respond(c, models.NewForbiddenError("Image uploads are not enabled for this account"))
			}
			src, err := fh.Open()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unable to read uploaded file"))
			}
			content, err := io.ReadAll(src)
			_ = src.Close()
			if err != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Unable to read uploaded file"))
			}
			in.Image = &service.ImageUpload{Filename: fh.Filename, Content: content}
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Content = req.Content
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// CreateRepost handles POST /api/posts/:id/repost
func (s *Server) CreateRepost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Comment string `json:"comment"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	post, err := s.postService.CreateRepost(c.UserContext(), service.CreateRepostInput{
		UserID:     userID(c),
		OriginalID: id,
		Comment:    req.Comment,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.postService.ToggleLike(c.UserContext(), userID(c), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(res)
}

// HasLiked handles GET /api/posts/:id/liked
func (s *Server) HasLiked(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	liked, err := s.postService.HasLiked(c.UserContext(), userID(c), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"post_id": id, "liked": liked})
}

// GetPostLikes handles GET /api/posts/:id/likes
// @Summary List likes on a post
// @Description Like rows, newest first, each with the liking user preloaded
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Like
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/likes [get]
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	likes, err := s.postService.GetPostLikes(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(likes)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), userID(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPostImage handles GET /api/posts/:id/image. A post whose image file is
// gone answers with a plain-text placeholder instead of an error.
func (s *Server) GetPostImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	post, err := s.postService.GetPost(ctx, id, 0)
	if err != nil {
		return models.Respond(c, err)
	}
	if !post.HasImage {
		return models.Respond(c, models.NewNotFoundError("Image for post", id))
	}

	rc, contentType, ok, err := s.imageService.Open(ctx, post.ImagePath)
	if err != nil {
		return models.Respond(c, err)
	}
	if !ok {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(service.ImagePlaceholder)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.SendStream(rc)
}
