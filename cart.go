package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func normalizeColor(color string) string {
	return strings.ToLower(color)
}

// addCartItem bumps cart[itemID][color] by one, creating either level as
// needed, and returns the (possibly newly allocated) cart.
func addCartItem(cart CartData, itemID, color string) CartData {
	if cart == nil {
		cart = CartData{}
	}
	color = normalizeColor(color)
	if cart[itemID] == nil {
		cart[itemID] = map[string]int{}
	}
	cart[itemID][color]++
	return cart
}

// setCartItem sets an explicit quantity. Zero removes the color and, once
// no colors remain, the item itself.
func setCartItem(cart CartData, itemID, color string, quantity int) CartData {
	if cart == nil {
		cart = CartData{}
	}
	color = normalizeColor(color)
	if quantity == 0 {
		if colors, ok := cart[itemID]; ok {
			delete(colors, color)
			if len(colors) == 0 {
				delete(cart, itemID)
			}
		}
		return cart
	}
	if cart[itemID] == nil {
		cart[itemID] = map[string]int{}
	}
	cart[itemID][color] = quantity
	return cart
}

type cartRequest struct {
	ItemID   string          `json:"itemId"`
	Colors   string          `json:"Colors"`
	Quantity json.RawMessage `json:"quantity"`
}

func (r cartRequest) validate(c *gin.Context) bool {
	if _, valid := parseObjectID(r.ItemID); !valid {
		fail(c, http.StatusBadRequest, "Invalid userId or itemId")
		return false
	}
	if r.Colors == "" {
		fail(c, http.StatusBadRequest, "Colors is required and must be a string")
		return false
	}
	return true
}

// parseQuantity accepts 3 or "3" the way form-driven clients send it.
func parseQuantity(raw json.RawMessage) (int, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" {
		return 0, false
	}
	q, err := strconv.Atoi(s)
	if err != nil || q < 0 {
		return 0, false
	}
	return q, true
}

func (a *App) cartOwner(c *gin.Context) (*User, bool) {
	p := principalFrom(c)
	if !p.HasUser() {
		fail(c, http.StatusBadRequest, "Invalid userId")
		return nil, false
	}
	user, err := a.store.GetUserByID(c.Request.Context(), p.UserID)
	if err != nil {
		storeFail(c, "cart", err, "User not found")
		return nil, false
	}
	return user, true
}

func (a *App) addToCart(c *gin.Context) {
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid input")
		return
	}
	if !req.validate(c) {
		return
	}
	user, found := a.cartOwner(c)
	if !found {
		return
	}
	cart := addCartItem(user.CartData, req.ItemID, req.Colors)
	if err := a.store.SetCart(c.Request.Context(), user.ID, cart); err != nil {
		storeFail(c, "addToCart", err, "User not found")
		return
	}
	ok(c, gin.H{"message": "Added to cart"})
}

func (a *App) updateCart(c *gin.Context) {
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid input")
		return
	}
	if !req.validate(c) {
		return
	}
	quantity, valid := parseQuantity(req.Quantity)
	if !valid {
		fail(c, http.StatusBadRequest, "Quantity must be a non-negative number")
		return
	}
	user, found := a.cartOwner(c)
	if !found {
		return
	}
	cart := setCartItem(user.CartData, req.ItemID, req.Colors, quantity)
	if err := a.store.SetCart(c.Request.Context(), user.ID, cart); err != nil {
		storeFail(c, "updateCart", err, "User not found")
		return
	}
	ok(c, gin.H{"message": "Cart updated"})
}

func (a *App) getCart(c *gin.Context) {
	user, found := a.cartOwner(c)
	if !found {
		return
	}
	cart := user.CartData
	if cart == nil {
		cart = CartData{}
	}
	ok(c, gin.H{"cartData": cart})
}
