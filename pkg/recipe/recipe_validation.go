package recipe

import "foodgram/domain"

// validateRecipeWrite checks the parts of a write request that the struct
// tags cannot express. The first problem found in the ingredient list wins.
func validateRecipeWrite(req domain.RecipeWriteRequest, requireImage bool) error {
	fields := make(map[string]string)

	if len(req.Ingredients) == 0 {
		fields["ingredients"] = domain.MsgIngredientsRequired
	} else {
		seen := make(map[uint]bool, len(req.Ingredients))
		for _, item := range req.Ingredients {
			if seen[item.ID] {
				fields["ingredients"] = domain.MsgIngredientsUnique
				break
			}
			if item.Amount <= 0 {
				fields["ingredients"] = domain.MsgAmountPositive
				break
			}
			seen[item.ID] = true
		}
	}

	if req.CookingTime <= 0 {
		fields["cooking_time"] = domain.MsgCookingTimeZero
	}
	if len(req.Tags) == 0 {
		fields["tags"] = domain.MsgTagsRequired
	}
	if requireImage && req.Image == "" {
		fields["image"] = domain.ErrImageRequired.Error()
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	res := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		res = append(res, id)
	}
	return res
}
