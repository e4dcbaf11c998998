package catalog

// Seed returns the built-in demo catalog used when no CATALOG_PATH is configured.
func Seed() Data {
	return Data{
		Products: []Product{
			{SKU: "LV001", Name: "Premium Linen Shirt", Brand: "Louis Philippe", Category: "formal", Price: 2999, Description: "Classic white linen shirt", Tags: []string{"formal", "premium"}, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"white", "blue"}},
			{SKU: "AB002", Name: "Slim Fit Chinos", Brand: "Allen Solly", Category: "casual", Price: 2499, Description: "Comfortable slim fit chinos", Tags: []string{"casual", "office"}, Sizes: []string{"30", "32", "34", "36"}, Colors: []string{"beige", "navy", "grey"}},
			{SKU: "VH003", Name: "Ethnic Silk Saree", Brand: "Van Heusen", Category: "ethnic", Price: 8999, Description: "Pure silk saree with zari work", Tags: []string{"ethnic", "traditional", "wedding"}, Sizes: []string{"Free"}, Colors: []string{"red", "gold", "green"}},
			{SKU: "PB004", Name: "Wool Blend Blazer", Brand: "Peter England", Category: "formal", Price: 5999, Description: "Single-breasted wool blazer", Tags: []string{"formal", "business"}, Sizes: []string{"38", "40", "42", "44"}, Colors: []string{"black", "charcoal"}},
			{SKU: "AP005", Name: "Cotton Kurti", Brand: "Pantaloons", Category: "ethnic", Price: 1499, Description: "Printed cotton kurti", Tags: []string{"ethnic", "casual"}, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"pink", "yellow", "blue"}},
			{SKU: "LV006", Name: "Leather Formal Shoes", Brand: "Louis Philippe", Category: "footwear", Price: 4999, Description: "Genuine leather oxford shoes", Tags: []string{"formal", "premium"}, Sizes: []string{"7", "8", "9", "10"}, Colors: []string{"black", "brown"}},
			{SKU: "AB007", Name: "Denim Jacket", Brand: "Allen Solly", Category: "casual", Price: 3499, Description: "Classic blue denim jacket", Tags: []string{"casual", "western"}, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"blue", "black"}},
			{SKU: "VH008", Name: "Formal Trousers", Brand: "Van Heusen", Category: "formal", Price: 2299, Description: "Flat front formal trousers", Tags: []string{"formal", "office"}, Sizes: []string{"30", "32", "34", "36"}, Colors: []string{"black", "grey", "navy"}},
			{SKU: "PB009", Name: "Polo T-Shirt", Brand: "Peter England", Category: "casual", Price: 999, Description: "Cotton polo t-shirt", Tags: []string{"casual", "basics"}, Sizes: []string{"S", "M", "L", "XL"}, Colors: []string{"white", "navy", "red"}},
			{SKU: "AP010", Name: "Designer Handbag", Brand: "Pantaloons", Category: "accessories", Price: 2999, Description: "Faux leather handbag", Tags: []string{"accessories", "western"}, Sizes: []string{"Free"}, Colors: []string{"black", "tan", "burgundy"}},
			{SKU: "LV011", Name: "Three-Piece Suit", Brand: "Louis Philippe", Category: "formal", Price: 15999, Description: "Premium wool suit set", Tags: []string{"formal", "luxury", "wedding"}, Sizes: []string{"38", "40", "42", "44"}, Colors: []string{"navy", "charcoal"}},
			{SKU: "AB012", Name: "Casual Sneakers", Brand: "Allen Solly", Category: "footwear", Price: 2799, Description: "Comfortable casual sneakers", Tags: []string{"casual", "sportswear"}, Sizes: []string{"7", "8", "9", "10"}, Colors: []string{"white", "grey", "black"}},
		},
		Inventory: []StoreStockEntry{
			{StoreID: "S001", StoreName: "Phoenix Mall Mumbai", Location: "Mumbai", SKU: "LV001", Quantity: 15},
			{StoreID: "S001", StoreName: "Phoenix Mall Mumbai", Location: "Mumbai", SKU: "AB002", Quantity: 22},
			{StoreID: "S001", StoreName: "Phoenix Mall Mumbai", Location: "Mumbai", SKU: "VH003", Quantity: 5},
			{StoreID: "S001", StoreName: "Phoenix Mall Mumbai", Location: "Mumbai", SKU: "PB004", Quantity: 8},
			{StoreID: "S002", StoreName: "DLF Mall Delhi", Location: "Delhi", SKU: "LV001", Quantity: 12},
			{StoreID: "S002", StoreName: "DLF Mall Delhi", Location: "Delhi", SKU: "AB002", Quantity: 18},
			{StoreID: "S002", StoreName: "DLF Mall Delhi", Location: "Delhi", SKU: "VH008", Quantity: 25},
			{StoreID: "S002", StoreName: "DLF Mall Delhi", Location: "Delhi", SKU: "LV011", Quantity: 3},
			{StoreID: "S003", StoreName: "Forum Mall Bangalore", Location: "Bangalore", SKU: "AB007", Quantity: 20},
			{StoreID: "S003", StoreName: "Forum Mall Bangalore", Location: "Bangalore", SKU: "PB009", Quantity: 30},
			{StoreID: "S003", StoreName: "Forum Mall Bangalore", Location: "Bangalore", SKU: "AP005", Quantity: 14},
			{StoreID: "S003", StoreName: "Forum Mall Bangalore", Location: "Bangalore", SKU: "AB012", Quantity: 16},
			{StoreID: "S004", StoreName: "Express Avenue Chennai", Location: "Chennai", SKU: "VH003", Quantity: 7},
			{StoreID: "S004", StoreName: "Express Avenue Chennai", Location: "Chennai", SKU: "LV006", Quantity: 10},
			{StoreID: "S004", StoreName: "Express Avenue Chennai", Location: "Chennai", SKU: "AP010", Quantity: 12},
			{StoreID: "S005", StoreName: "Inorbit Mall Hyderabad", Location: "Hyderabad", SKU: "LV001", Quantity: 0},
			{StoreID: "S005", StoreName: "Inorbit Mall Hyderabad", Location: "Hyderabad", SKU: "PB004", Quantity: 6},
			{StoreID: "S005", StoreName: "Inorbit Mall Hyderabad", Location: "Hyderabad", SKU: "VH008", Quantity: 19},
		},
		Customers: []Customer{
			{ID: "C001", Name: "Priya Sharma", Email: "priya@email.com", Phone: "+91-9876543210", Tier: TierGold, LoyaltyPoints: 2500, Preferences: []string{"formal", "ethnic"}, PurchaseHistory: []string{"shirt", "blazer", "saree"}, AvgOrderValue: 4500},
			{ID: "C002", Name: "Rahul Verma", Email: "rahul@email.com", Phone: "+91-9876543211", Tier: TierPlatinum, LoyaltyPoints: 5000, Preferences: []string{"casual", "sportswear"}, PurchaseHistory: []string{"jeans", "tshirt", "sneakers"}, AvgOrderValue: 6200},
			{ID: "C003", Name: "Ananya Iyer", Email: "ananya@email.com", Phone: "+91-9876543212", Tier: TierSilver, LoyaltyPoints: 1200, Preferences: []string{"western", "accessories"}, PurchaseHistory: []string{"dress", "handbag"}, AvgOrderValue: 3200},
			{ID: "C004", Name: "Arjun Mehta", Email: "arjun@email.com", Phone: "+91-9876543213", Tier: TierGold, LoyaltyPoints: 3200, Preferences: []string{"formal", "luxury"}, PurchaseHistory: []string{"suit", "watch", "shoes"}, AvgOrderValue: 8500},
			{ID: "C005", Name: "Sneha Patel", Email: "sneha@email.com", Phone: "+91-9876543214", Tier: TierBronze, LoyaltyPoints: 500, Preferences: []string{"ethnic", "traditional"}, PurchaseHistory: []string{"kurti"}, AvgOrderValue: 1800},
			{ID: "C006", Name: "Vikram Singh", Email: "vikram@email.com", Phone: "+91-9876543215", Tier: TierPlatinum, LoyaltyPoints: 7500, Preferences: []string{"formal", "premium"}, PurchaseHistory: []string{"blazer", "shirt", "trousers", "tie"}, AvgOrderValue: 9200},
			{ID: "C007", Name: "Kavya Reddy", Email: "kavya@email.com", Phone: "+91-9876543216", Tier: TierGold, LoyaltyPoints: 2800, Preferences: []string{"western", "casual"}, PurchaseHistory: []string{"jeans", "top", "jacket"}, AvgOrderValue: 4100},
			{ID: "C008", Name: "Aditya Kumar", Email: "aditya@email.com", Phone: "+91-9876543217", Tier: TierSilver, LoyaltyPoints: 1500, Preferences: []string{"sportswear", "athleisure"}, PurchaseHistory: []string{"trackpants", "hoodie"}, AvgOrderValue: 2900},
			{ID: "C009", Name: "Meera Nair", Email: "meera@email.com", Phone: "+91-9876543218", Tier: TierGold, LoyaltyPoints: 3500, Preferences: []string{"ethnic", "designer"}, PurchaseHistory: []string{"lehenga", "jewelry"}, AvgOrderValue: 12000},
			{ID: "C010", Name: "Rohan Gupta", Email: "rohan@email.com", Phone: "+91-9876543219", Tier: TierBronze, LoyaltyPoints: 800, Preferences: []string{"casual", "basics"}, PurchaseHistory: []string{"tshirt", "shorts"}, AvgOrderValue: 2200},
		},
	}
}
