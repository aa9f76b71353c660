package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"blogapi/internal/model"
	"blogapi/internal/service"
)

// pathID returns a copy of the :id param. Fiber reuses the param's buffer once the handler returns,
// and the id outlives the request in trace spans.
func pathID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// ListPosts godoc
// @Summary     List posts
// @Tags        posts
// @Produce     json
// @Success     200 {array}  model.WirePost
// @Failure     503 {object} errorPayload
// @Router      /posts [get]
func ListPosts(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(model.ToWireList(posts))
	}
}

// GetPost godoc
// @Summary     Get a post
// @Tags        posts
// @Produce     json
// @Param       id  path     string true "Post ID"
// @Success     200 {object} model.WirePost
// @Failure     404 {object} errorPayload
// @Router      /posts/{id} [get]
func GetPost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := svc.Get(c.UserContext(), pathID(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(model.ToWire(*p))
	}
}

// CreatePost godoc
// @Summary     Create a post
// @Tags        posts
// @Accept      json
// @Produce     json
// @Param       post body     model.CreatePostInput true "New post"
// @Success     201  {object} model.WirePost
// @Failure     400  {object} errorPayload
// @Router      /posts [post]
func CreatePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := model.DecodeCreate(c.Body())
		if err != nil {
			return writeInputError(c, err)
		}
		draft, err := model.FromWireCreate(in, time.Now())
		if err != nil {
			return writeInputError(c, err)
		}

		p, err := svc.Create(c.UserContext(), draft)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(model.ToWire(*p))
	}
}

// UpdatePost godoc
// @Summary     Update a post
// @Description Only fields present in the body are changed. An id in the body must match the path.
// @Tags        posts
// @Accept      json
// @Produce     json
// @Param       id   path     string          true "Post ID"
// @Param       post body     model.WirePost  true "Fields to change"
// @Success     200  {object} model.WirePost
// @Failure     400  {object} errorPayload
// @Failure     404  {object} errorPayload
// @Router      /posts/{id} [put]
func UpdatePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := pathID(c)

		in, err := model.ParseUpdate(c.Body())
		if err != nil {
			return writeInputError(c, err)
		}
		if in.ID != nil && *in.ID != id {
			return writeError(c, fiber.StatusBadRequest, "ID_MISMATCH", "body id does not match path id")
		}

		p, err := svc.Update(c.UserContext(), id, in.Patch())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(model.ToWire(*p))
	}
}

// DeletePost godoc
// @Summary     Delete a post
// @Tags        posts
// @Param       id  path string true "Post ID"
// @Success     204
// @Failure     404 {object} errorPayload
// @Router      /posts/{id} [delete]
func DeletePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), pathID(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
