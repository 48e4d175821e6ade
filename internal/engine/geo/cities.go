package geo

// cityEntry maps a lookup key to coordinates. The table is matched by
// substring: the first entry whose key appears in the lowercased input
// wins, so order is part of the contract. Keep it a slice literal.
type cityEntry struct {
	key     string
	lat     float64
	lng     float64
	display string
}

var cityTable = []cityEntry{
	{"new york", 40.7128, -74.0060, "New York, NY"},
	{"los angeles", 34.0522, -118.2437, "Los Angeles, CA"},
	{"chicago", 41.8781, -87.6298, "Chicago, IL"},
	{"houston", 29.7604, -95.3698, "Houston, TX"},
	{"phoenix", 33.4484, -112.0740, "Phoenix, AZ"},
	{"philadelphia", 39.9526, -75.1652, "Philadelphia, PA"},
	{"san antonio", 29.4241, -98.4936, "San Antonio, TX"},
	{"san diego", 32.7157, -117.1611, "San Diego, CA"},
	{"dallas", 32.7767, -96.7970, "Dallas, TX"},
	{"san jose", 37.3382, -121.8863, "San Jose, CA"},
	{"austin", 30.2672, -97.7431, "Austin, TX"},
	{"jacksonville", 30.3322, -81.6557, "Jacksonville, FL"},
	{"fort worth", 32.7555, -97.3308, "Fort Worth, TX"},
	{"columbus", 39.9612, -82.9988, "Columbus, OH"},
	{"charlotte", 35.2271, -80.8431, "Charlotte, NC"},
	{"indianapolis", 39.7684, -86.1581, "Indianapolis, IN"},
	{"san francisco", 37.7749, -122.4194, "San Francisco, CA"},
	{"seattle", 47.6062, -122.3321, "Seattle, WA"},
	{"denver", 39.7392, -104.9903, "Denver, CO"},
	{"oklahoma city", 35.4676, -97.5164, "Oklahoma City, OK"},
	{"nashville", 36.1627, -86.7816, "Nashville, TN"},
	{"el paso", 31.7619, -106.4850, "El Paso, TX"},
	{"washington", 38.9072, -77.0369, "Washington, DC"},
	{"las vegas", 36.1699, -115.1398, "Las Vegas, NV"},
	{"boston", 42.3601, -71.0589, "Boston, MA"},
	{"portland", 45.5152, -122.6784, "Portland, OR"},
	{"louisville", 38.2527, -85.7585, "Louisville, KY"},
	{"memphis", 35.1495, -90.0490, "Memphis, TN"},
	{"detroit", 42.3314, -83.0458, "Detroit, MI"},
	{"baltimore", 39.2904, -76.6122, "Baltimore, MD"},
	{"milwaukee", 43.0389, -87.9065, "Milwaukee, WI"},
	{"albuquerque", 35.0844, -106.6504, "Albuquerque, NM"},
	{"tucson", 32.2226, -110.9747, "Tucson, AZ"},
	{"fresno", 36.7378, -119.7871, "Fresno, CA"},
	{"sacramento", 38.5816, -121.4944, "Sacramento, CA"},
	{"kansas city", 39.0997, -94.5786, "Kansas City, MO"},
	{"mesa", 33.4152, -111.8315, "Mesa, AZ"},
	{"atlanta", 33.7490, -84.3880, "Atlanta, GA"},
	{"omaha", 41.2565, -95.9345, "Omaha, NE"},
	{"colorado springs", 38.8339, -104.8214, "Colorado Springs, CO"},
	{"raleigh", 35.7796, -78.6382, "Raleigh, NC"},
	{"miami", 25.7617, -80.1918, "Miami, FL"},
	{"virginia beach", 36.8529, -75.9780, "Virginia Beach, VA"},
	{"oakland", 37.8044, -122.2712, "Oakland, CA"},
	{"minneapolis", 44.9778, -93.2650, "Minneapolis, MN"},
	{"tulsa", 36.1540, -95.9928, "Tulsa, OK"},
	{"tampa", 27.9506, -82.4572, "Tampa, FL"},
	{"arlington", 32.7357, -97.1081, "Arlington, TX"},
	{"new orleans", 29.9511, -90.0715, "New Orleans, LA"},
	{"cleveland", 41.4993, -81.6944, "Cleveland, OH"},
}

// KnownCityNames returns the display names of the static table in table
// order. Used as the default rotation location list.
func KnownCityNames() []string {
	names := make([]string, len(cityTable))
	for i, c := range cityTable {
		names[i] = c.display
	}
	return names
}
