package orderitem

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	Ids      []int64
	OrderIds []int64
}
